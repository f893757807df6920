// Package transform provides a set of ready-made transform functions a host
// can register on a template.Transformer: URL and base64 encoding, case
// mapping, trimming, length and hex digests.
//
//	t := template.NewTransformer()
//	if err := transform.Register(t, "urlencode", "upper"); err != nil {
//		return err
//	}
//	out := template.Render("q={{urlencode(city)}}", lookup, t)
package transform
