package cmd

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/born-ml/descent/internal/serialization"
)

// StateSummary is the printable form of a state file.
type StateSummary struct {
	Metadata map[string]string `json:"metadata"`
	Tensors  []TensorSummary   `json:"tensors"`
}

// TensorSummary describes one tensor of a state file.
type TensorSummary struct {
	Name        string    `json:"name"`
	DType       string    `json:"dtype"`
	Shape       []int64   `json:"shape"`
	DataOffsets [2]int64  `json:"dataOffsets"`
	Values      []float64 `json:"values,omitempty"`
}

func inspectCmd() *cobra.Command {
	var (
		output       string
		values       bool
		skipChecksum bool
	)
	cmd := &cobra.Command{
		Use:   "inspect ./path/to/state.safetensors",
		Short: "Print the header of a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := serialization.ReadFile(args[0], serialization.ReaderOptions{
				SkipChecksumValidation: skipChecksum,
			})
			if err != nil {
				return err
			}
			out, err := render(summarize(f, values), output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml, json)")
	cmd.Flags().BoolVar(&values, "values", false, "Include tensor values")
	cmd.Flags().BoolVar(&skipChecksum, "skip-checksum", false, "Do not verify the data checksum")
	return cmd
}

func summarize(f *serialization.File, values bool) StateSummary {
	s := StateSummary{Metadata: f.Metadata}
	for _, name := range f.Names() {
		meta := f.Tensors[name]
		t := TensorSummary{
			Name:        name,
			DType:       meta.DType,
			Shape:       meta.Shape,
			DataOffsets: meta.DataOffsets,
		}
		if values {
			t.Values, _ = f.Tensor(name)
		}
		s.Tensors = append(s.Tensors, t)
	}
	return s
}

func render(s StateSummary, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(s)
	case "json":
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return append(out, '\n'), nil
	}
	return nil, errors.Errorf("unknown output format %q", format)
}
