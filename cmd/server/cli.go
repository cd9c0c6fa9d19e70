package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
	mcproutes "github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/routes/mcp"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search job listings",
	Long:  `Run one search and print the page as JSON. With --with-details the leading listings are expanded with their details.`,
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

var detailsCmd = &cobra.Command{
	Use:   "details [reference-number]",
	Short: "Show the details of one listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Run a batch of named searches",
	Long: `Run the named searches in file (or stdin with "-") and print the batch result.
The file holds the batch_search_jobs arguments, for example:

  {"searches": [{"name": "berlin", "job_title": "Koch", "location": "Berlin"}],
   "max_details_per_search": 2}`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the upstream API and print server status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	addSearchFlags(searchCmd.Flags())
	for _, cmd := range []*cobra.Command{searchCmd, detailsCmd, batchCmd} {
		addFieldFlags(cmd.Flags())
	}
}

func addSearchFlags(flags *pflag.FlagSet) {
	flags.String("job-title", "", "Job title or keywords")
	flags.String("location", "", "City, postal code or region")
	flags.Int("radius", 0, "Radius around location in km")
	flags.StringSlice("employment-type", nil, "Working time models (fulltime, parttime, minijob, homeoffice, shift)")
	flags.StringSlice("contract-type", nil, "Contract types (permanent, temporary)")
	flags.Int("published-since", 0, "Only listings published within this many days")
	flags.Int("page", 1, "Page number")
	flags.Int("page-size", 0, "Results per page")
	flags.String("employer", "", "Employer name")
	flags.String("branch", "", "Industry or branch keywords")
	flags.Bool("with-details", false, "Expand the leading listings with their details")
	flags.Int("max-details", 0, "Listings to expand with --with-details")
}

func addFieldFlags(flags *pflag.FlagSet) {
	flags.StringSlice("include-fields", nil, "Only return these fields")
	flags.StringSlice("exclude-fields", nil, "Drop these fields")
}

// searchArgsFromFlags maps search flags onto the search_jobs_with_details
// arguments. Numeric flags are only passed on when set explicitly.
func searchArgsFromFlags(flags *pflag.FlagSet) (mcproutes.SearchJobsWithDetailsArgs, error) {
	var args mcproutes.SearchJobsWithDetailsArgs
	var err error

	str := func(name string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = flags.GetString(name)
		return v
	}
	slice := func(name string) []string {
		if err != nil {
			return nil
		}
		var v []string
		v, err = flags.GetStringSlice(name)
		return v
	}
	optInt := func(name string) *int {
		if err != nil || !flags.Changed(name) {
			return nil
		}
		var v int
		v, err = flags.GetInt(name)
		return &v
	}

	args.JobTitle = str("job-title")
	args.Location = str("location")
	args.Employer = str("employer")
	args.Branch = str("branch")
	args.EmploymentType = slice("employment-type")
	args.ContractType = slice("contract-type")
	args.RadiusKM = optInt("radius")
	args.PublishedSinceDays = optInt("published-since")
	args.Page = optInt("page")
	args.PageSize = optInt("page-size")
	args.MaxDetails = optInt("max-details")
	if err != nil {
		return args, err
	}
	args.Fields, err = fieldsFromFlags(flags)
	return args, err
}

func fieldsFromFlags(flags *pflag.FlagSet) (*projection.FieldSpec, error) {
	include, err := flags.GetStringSlice("include-fields")
	if err != nil {
		return nil, err
	}
	exclude, err := flags.GetStringSlice("exclude-fields")
	if err != nil {
		return nil, err
	}
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	return &projection.FieldSpec{Include: include, Exclude: exclude}, nil
}

// readBatchArgs decodes batch_search_jobs arguments, rejecting unknown keys.
func readBatchArgs(r io.Reader) (mcproutes.BatchSearchJobsArgs, error) {
	var args mcproutes.BatchSearchJobsArgs
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return args, fmt.Errorf("decode batch file: %w", err)
	}
	return args, nil
}

func runSearch(cmd *cobra.Command, _ []string) error {
	args, err := searchArgsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	withDetails, _ := cmd.Flags().GetBool("with-details")

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if withDetails {
		payload, err := app.jobsearchMCP.SearchJobsWithDetails(cmd.Context(), args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), payload)
	}

	payload, err := app.jobsearchMCP.SearchJobs(cmd.Context(), mcproutes.SearchJobsArgs{
		JobTitle:           args.JobTitle,
		Location:           args.Location,
		RadiusKM:           args.RadiusKM,
		EmploymentType:     args.EmploymentType,
		ContractType:       args.ContractType,
		PublishedSinceDays: args.PublishedSinceDays,
		PageSize:           args.PageSize,
		Page:               args.Page,
		Employer:           args.Employer,
		Branch:             args.Branch,
		Fields:             args.Fields,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), payload)
}

func runDetails(cmd *cobra.Command, positional []string) error {
	fields, err := fieldsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	record, err := app.jobsearchMCP.GetJobDetails(cmd.Context(), mcproutes.GetJobDetailsArgs{
		ReferenceNumber: positional[0],
		Fields:          fields,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), record)
}

func runBatch(cmd *cobra.Command, positional []string) error {
	in := cmd.InOrStdin()
	if positional[0] != "-" {
		f, err := os.Open(positional[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	args, err := readBatchArgs(in)
	if err != nil {
		return err
	}
	fields, err := fieldsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if fields != nil {
		args.Fields = fields
	}

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	payload, err := app.jobsearchMCP.BatchSearchJobs(cmd.Context(), args)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), payload)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	payload, err := app.jobsearchMCP.GetServerStatus(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), payload)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
