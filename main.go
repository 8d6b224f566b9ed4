package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/musicstore/store-contract-tests/client"
	"github.com/musicstore/store-contract-tests/config"
	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/servicedef"
	"github.com/musicstore/store-contract-tests/storetests"
)

const (
	exitFailed        = 1
	exitInvalidParams = 2

	retryDelay = time.Millisecond * 500
)

type runEnv struct {
	getenv     func(string) string
	stdout     io.Writer
	stderr     io.Writer
	httpClient *http.Client
}

func main() {
	os.Exit(run(os.Args, runEnv{getenv: os.Getenv, stdout: os.Stdout, stderr: os.Stderr}))
}

func run(args []string, env runEnv) int {
	var params commandParams
	if !params.Read(args, env.getenv, env.stderr) {
		return exitInvalidParams
	}

	if params.list {
		for _, name := range storetests.ScenarioNames() {
			description, _ := storetests.Describe(name)
			fmt.Fprintf(env.stdout, "%-20s %s\n", name, description)
		}
		return 0
	}

	var cfg config.Config
	if params.configFile != "" {
		var err error
		if cfg, err = config.Load(params.configFile); err != nil {
			fmt.Fprintln(env.stderr, err)
			return exitInvalidParams
		}
	}
	params.applyConfig(cfg)
	if params.baseURL == "" {
		fmt.Fprintf(env.stderr, "-url is required (or set $%s, or baseUrl in the config file)\n", baseURLEnvVar)
		return exitInvalidParams
	}

	// Progress goes to stderr when stdout carries the JSON reports.
	out := env.stdout
	if params.jsonOutput {
		out = env.stderr
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(out, "", log.LstdFlags)
	}

	storeClient, err := client.New(params.baseURL, client.Options{
		HTTPClient: env.httpClient,
		Timeout:    params.timeout,
		Retries:    params.retries,
		RetryDelay: retryDelay,
		Logger:     mainDebugLogger,
	})
	if err != nil {
		fmt.Fprintln(env.stderr, err)
		return exitInvalidParams
	}

	if params.wait > 0 {
		if err := storeClient.AwaitService("/", params.wait, out); err != nil {
			fmt.Fprintf(env.stderr, "Store service error: %s\n", err)
			return exitFailed
		}
	}

	fmt.Fprintln(out)
	framework.PrintFilterDescription(out, params.filters, params.candidateScenarios())

	fmt.Fprintf(out, "Running scenarios against %s\n", storeClient.BaseURL())

	stepLogger := consoleStepLogger{
		out:                  out,
		debugOutputOnFailure: params.debug || params.debugAll,
		debugOutputOnSuccess: params.debugAll,
	}

	var reports []framework.Report
	var failed []string
	for _, name := range params.selectedScenarios() {
		scenarioParams, err := cfg.ScenarioParams(name, storeClient)
		if err != nil {
			fmt.Fprintln(env.stderr, err)
			return exitInvalidParams
		}
		if params.username != "" {
			scenarioParams.Credentials = servicedef.Credentials{
				Username: params.username,
				Password: params.password,
				Email:    params.email,
				Role:     servicedef.RoleCustomer,
			}
		}

		report, err := storetests.RunScenario(name, scenarioParams, stepLogger)
		if err != nil {
			fmt.Fprintln(env.stderr, err)
			return exitInvalidParams
		}
		reports = append(reports, report)
		if !report.OK() {
			failed = append(failed, name)
		}

		fmt.Fprintln(out)
		framework.PrintReport(out, report)
	}

	fmt.Fprintln(out)
	framework.PrintResults(out, reports)

	if params.jsonOutput {
		if err := framework.WriteJSON(env.stdout, reports); err != nil {
			fmt.Fprintln(env.stderr, err)
			return exitFailed
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To run only the failed scenarios again:")
		fmt.Fprintf(out, "  %s\n", params.rerunCommand(programName(args), failed))
		return exitFailed
	}
	return 0
}
