package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/csvtool"
	"github.com/spf13/pflag"
)

// RunCSV2Txt writes the first column of the CSV file input to output.
func RunCSV2Txt(params RunParams, flags *pflag.FlagSet, input, output string) error {
	if _, err := setup(params, flags); err != nil {
		return err
	}

	n, err := csvtool.Convert(input, output)
	if err != nil {
		return err
	}
	slog.Info("Converted first column", "input", input, "output", output, "rows", n)

	_, _ = fmt.Fprintf(stdoutOf(params), "Done! (%s)\n", output)
	return nil
}

// RunPolicyInit writes the default policy to the policy location.
func RunPolicyInit(params RunParams, flags *pflag.FlagSet, force bool) error {
	if _, err := setup(params, flags); err != nil {
		return err
	}

	if err := config.WritePolicy(config.DefaultPolicyPath, config.DefaultPolicy(), force); err != nil {
		if errors.Is(err, config.ErrPolicyExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}

	_, _ = fmt.Fprintf(stdoutOf(params), "Wrote %s\n", config.DefaultPolicyPath)
	return nil
}

// RunPolicyShow prints the effective policy.
func RunPolicyShow(params RunParams, flags *pflag.FlagSet) error {
	if _, err := setup(params, flags); err != nil {
		return err
	}

	policy, err := loadPolicy(params)
	if err != nil {
		return err
	}
	return config.EncodePolicy(stdoutOf(params), policy)
}

func stdoutOf(params RunParams) io.Writer {
	if params.Stdout != nil {
		return params.Stdout
	}
	return os.Stdout
}
