// Package framework contains the low-level implementation of the scenario runner, which is
// reusable for any kind of ordered, stateful workflow test against a black-box service.
//
// The general model is:
//
// 1. A Scenario is an ordered list of Steps. Each Step has a name, an action, and a
// FailurePolicy that says whether a failure aborts the rest of the run or is only a warning.
//
// 2. Steps share a ScenarioContext, a bag of values that accumulates the data returned by
// successful steps (an auth token, a list of item IDs, and so on) so that later steps can use it.
//
// 3. Running a scenario produces a Report with exactly one entry per step, in declaration
// order. Rendering the Report for humans or machines is separate from producing it.
//
// The domain-specific code that knows what is being tested is responsible for building the
// steps and for talking to the service under test.
package framework
