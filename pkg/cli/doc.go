/*
Package cli provides the output, error and signal helpers shared by the
rulekit commands.

Output Formatting:

Command results are printed as text, JSON or CSV. Values that know how to
print themselves implement Texter; values that can be tabulated implement
Table.

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, evaluation); err != nil {
		return err
	}

Progress Reporting:

Batch evaluations report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "contexts")
	progress.Start(int64(len(inputs)))
	for i := range inputs {
		// Evaluate
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Exit Codes:

ExitCode maps the error returned by a command to the process exit status:
0 on success, 2 for configuration errors, the code of an *ExitError, and 1
otherwise.
*/
package cli
