//go:build stave

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the rabbit binary with version information.
func Build() error {
	st.Deps(Init)

	// Check if rebuild is needed
	rebuild, err := target.Glob("bin/rabbit", "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Println("rabbit is up to date")
		}
		return nil
	}

	ldflags := buildLdflags()
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/rabbit", "./cmd/rabbit")
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
	)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort runs tests in short mode (skips long-running tests).
func TestShort() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// TestVerbose runs tests with verbose output.
func TestVerbose() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "-v", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// LintFix runs golangci-lint with auto-fix enabled.
func LintFix() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// Fmt formats all Go code using gofmt and goimports.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if err := sh.Run("goimports", "-w", "."); err != nil {
		return fmt.Errorf("goimports: %w", err)
	}
	return nil
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts and generated demo data.
func Clean() error {
	artifacts := []string{
		"bin/",
		"rabbit",
		"coverage.out",
		"coverage.html",
		"testdata/classifier.onnx",
		"testdata/rows.csv",
		"testdata/scored.csv",
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Install builds and installs the binary to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	dst := bin + "/rabbit"
	if runtime.GOOS == "windows" {
		dst += ".exe"
	}
	if err := sh.Copy(dst, "bin/rabbit"); err != nil {
		return fmt.Errorf("installing rabbit: %w", err)
	}
	if st.Verbose() {
		fmt.Printf("Installed rabbit to %s\n", dst)
	}
	return nil
}

// Testdata namespace for generated fixtures.
type Testdata st.Namespace

// Generate writes the demo classifier and labelled rows to testdata/.
func (Testdata) Generate() error {
	rebuild, err := target.Glob("testdata/classifier.onnx", "scripts/make-classifier.go", "internal/onnxgen/*.go")
	if err != nil {
		return fmt.Errorf("checking fixtures: %w", err)
	}
	if !rebuild {
		return nil
	}
	return sh.RunV("go", "run", "./scripts/make-classifier.go")
}

// Demo namespace for end-to-end runs of the CLI on the generated fixtures.
type Demo st.Namespace

// Score runs the demo classifier over testdata/rows.csv and reports metrics.
// ONNXRUNTIME_LIB may point at the ONNX Runtime shared library.
func (Demo) Score() error {
	st.Deps(Build, Testdata.Generate)

	args := []string{"score",
		"--model", "testdata/classifier.onnx",
		"--features", "a,b",
		"--out", "testdata/scored.csv",
	}
	if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
		args = append(args, "--library", lib)
	}
	return sh.RunV("./bin/rabbit", append(args, "testdata/rows.csv")...)
}

// Sweep finds the best threshold for the scores written by Demo.Score.
func (Demo) Sweep() error {
	st.Deps(Demo.Score)
	return sh.RunV("./bin/rabbit", "sweep", "--step", "0.01", "--top", "5", "testdata/scored.csv")
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}

// Coverage generates a coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Tidy runs go mod tidy and verifies the go.sum is clean.
func Tidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	// Verify no changes to go.sum (useful for CI)
	output, err := sh.Output("git", "diff", "--exit-code", "go.sum")
	if err != nil {
		if output != "" {
			return fmt.Errorf("go.sum is not clean:\n%s", output)
		}
	}
	return nil
}
