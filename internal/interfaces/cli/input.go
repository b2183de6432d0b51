package cli

import (
	"io"
	"os"
	"strings"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// readReport returns the report text from --file ("-" reads stdin) or the
// positional arguments.
func readReport(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidParam, "failed to read report from stdin")
		}
		return string(b), nil
	case file != "":
		if len(args) > 0 {
			return "", errors.InvalidParam("pass the report as TEXT or --file, not both")
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidParam, "failed to read report file").WithDetail(file)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.InvalidParam("no report given; pass TEXT, --file PATH or --file -")
	}
}

//Personal.AI order the ending
