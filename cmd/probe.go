package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pulsewatch/server/internal/http/handlers"
	"github.com/pulsewatch/server/pkg/assertion"
	"github.com/pulsewatch/server/pkg/client"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/pulsewatch/server/pkg/probe"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func buildProbeCmd(logger func() *slog.Logger) *cobra.Command {
	var file string
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Checks once the endpoint described in a YAML file",
		Run: func(cmd *cobra.Command, args []string) {
			l := logger()
			healthy, err := runProbe(cmd.Context(), file)
			if err != nil {
				l.Error(err.Error())
				os.Exit(2)
			}
			if !healthy {
				os.Exit(1)
			}
		},
	}
	probeCmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML endpoint definition")
	_ = probeCmd.MarkFlagRequired("file")
	return probeCmd
}

func loadEndpoint(path string) (*aggregates.Endpoint, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to read endpoint file: %w", err)
	}
	var definition client.EndpointDefinition
	if err := yaml.Unmarshal(content, &definition); err != nil {
		return nil, fmt.Errorf("fail to parse endpoint file: %w", err)
	}
	e, err := handlers.ToEndpoint(definition)
	if err != nil {
		return nil, err
	}
	if e.Method == "" {
		e.Method = http.MethodGet
	}
	if e.Timeout == 0 {
		e.Timeout = probe.DefaultTimeout
	}
	return e, nil
}

func runProbe(ctx context.Context, path string) (bool, error) {
	e, err := loadEndpoint(path)
	if err != nil {
		return false, err
	}
	executor := probe.New(&http.Client{})
	response, failure := executor.Do(ctx, e)
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Check", "Result"})
	t.AppendRow(table.Row{"URL", fmt.Sprintf("%s %s", e.Method, e.URL)})
	if failure != nil {
		t.AppendRow(table.Row{"Healthy", "false"})
		t.AppendRow(table.Row{"Error", failure.Error()})
		t.Render()
		return false, nil
	}
	healthy, reasons := assertion.Evaluate(*response, e)
	t.AppendRow(table.Row{"Status", strconv.Itoa(response.StatusCode)})
	t.AppendRow(table.Row{"Latency", response.Latency.String()})
	t.AppendRow(table.Row{"Healthy", strconv.FormatBool(healthy)})
	for _, reason := range reasons {
		t.AppendRow(table.Row{"Failure", reason})
	}
	t.Render()
	return healthy, nil
}
