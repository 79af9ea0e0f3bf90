// Package vespa holds the pure decision logic for deploying application
// packages to Vespa.
//
// Nothing in this package performs I/O. The imperative shell
// (internal/shell/deployer and internal/shell/vespaclient) calls into it to
// classify platform failures, render validation overrides, select
// constructor arguments for whichever client version is installed and to
// drive the attempt state machine.
//
// # Functions
//
//   - Classification: IsClusterRemoval, IsShapeMismatch
//   - Overrides: ValidationOverridesXML, OverrideExpiry
//   - Capabilities: CapabilitiesOf, LocalConstructorArgs, CloudConstructorArgs
//   - Endpoints: CloudMTLSPaths
//
// # Usage
//
//	caps := vespa.CapabilitiesOf(DockerOptions{})
//	args := vespa.LocalConstructorArgs(caps, params)
//	if vespa.IsClusterRemoval(err.Error()) { ... }
package vespa
