package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/musicstore/store-contract-tests/config"
	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/storetests"

	"github.com/alessio/shellescape"
)

const baseURLEnvVar = "STORE_BASE_URL"

type commandParams struct {
	baseURL    string
	scenarios  stringList
	configFile string
	filters    framework.RegexFilters
	timeout    time.Duration
	retries    int
	username   string
	password   string
	email      string
	wait       time.Duration
	list       bool
	debug      bool
	debugAll   bool
	jsonOutput bool

	explicit map[string]bool
}

// Read parses the command line. It returns false, after describing the problem on stderr, if
// the parameters are invalid.
func (c *commandParams) Read(args []string, getenv func(string) string, stderr io.Writer) bool {
	fs := flag.NewFlagSet(programName(args), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.baseURL, "url", "", "store service base URL (default $"+baseURLEnvVar+")")
	fs.Var(&c.scenarios, "scenario", "scenario to run, may be repeated (default: all)")
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select scenarios to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select scenarios not to run")
	fs.DurationVar(&c.timeout, "timeout", 0, "timeout for each request (default none)")
	fs.IntVar(&c.retries, "retries", 0, "number of retries after a network failure")
	fs.StringVar(&c.username, "username", "", "account to use instead of each scenario's own")
	fs.StringVar(&c.password, "password", "", "password for -username")
	fs.StringVar(&c.email, "email", "", "email address for registering -username")
	fs.DurationVar(&c.wait, "wait", 0, "wait up to this long for the service to respond before running")
	fs.BoolVar(&c.list, "list", false, "list the available scenarios and exit")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed steps")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all steps")
	fs.BoolVar(&c.jsonOutput, "json", false, "write the reports to stdout as JSON")

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	if err := fs.Parse(rest); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return false
	}

	c.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { c.explicit[f.Name] = true })

	if c.baseURL == "" && getenv != nil {
		c.baseURL = getenv(baseURLEnvVar)
	}

	var problems []string
	if fs.NArg() > 0 {
		problems = append(problems, fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " ")))
	}
	known := make(map[string]bool)
	for _, name := range storetests.ScenarioNames() {
		known[name] = true
	}
	for _, name := range c.scenarios {
		if !known[name] {
			problems = append(problems, fmt.Sprintf("unknown scenario %q (available: %s)",
				name, strings.Join(storetests.ScenarioNames(), ", ")))
		}
	}
	if c.retries < 0 {
		problems = append(problems, "-retries must not be negative")
	}
	if c.timeout < 0 || c.wait < 0 {
		problems = append(problems, "durations must not be negative")
	}
	if (c.username == "") != (c.password == "") {
		problems = append(problems, "-username and -password must be used together")
	}
	if c.email != "" && c.username == "" {
		problems = append(problems, "-email requires -username")
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(stderr, p)
		}
		fs.Usage()
		return false
	}
	return true
}

// applyConfig fills in anything not given on the command line from the configuration file.
func (c *commandParams) applyConfig(cfg config.Config) {
	if c.baseURL == "" {
		c.baseURL = cfg.BaseURL
	}
	if !c.explicit["timeout"] {
		c.timeout = cfg.Timeout
	}
	if !c.explicit["retries"] {
		c.retries = cfg.Retries
	}
}

// selectedScenarios returns the scenarios to run, in catalog order, after applying
// -scenario and the -run/-skip filters.
func (c commandParams) selectedScenarios() []string {
	var ret []string
	for _, name := range c.candidateScenarios() {
		if c.filters.AsFilter(name) {
			ret = append(ret, name)
		}
	}
	return ret
}

func (c commandParams) candidateScenarios() []string {
	if len(c.scenarios) == 0 {
		return storetests.ScenarioNames()
	}
	wanted := make(map[string]bool)
	for _, name := range c.scenarios {
		wanted[name] = true
	}
	var ret []string
	for _, name := range storetests.ScenarioNames() {
		if wanted[name] {
			ret = append(ret, name)
		}
	}
	return ret
}

// rerunCommand is a command line that repeats this run for only the given scenarios.
// Credentials given on the command line are not repeated.
func (c commandParams) rerunCommand(program string, scenarios []string) string {
	var b commandBuilder
	b.add(program, "-url", c.baseURL)
	if c.configFile != "" {
		b.add("-config", c.configFile)
	}
	for _, name := range scenarios {
		b.add("-scenario", name)
	}
	if c.timeout > 0 {
		b.add("-timeout", c.timeout.String())
	}
	if c.retries > 0 {
		b.add("-retries", strconv.Itoa(c.retries))
	}
	b.add("-debug")
	return b.String()
}

func programName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "store-contract-tests"
	}
	return args[0]
}

type stringList []string

func (s stringList) String() string {
	return strings.Join(s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
