package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do"

	"asp/compiler-go/pkg/driver"
)

const cliToolVersion = "aspc 0.2.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "build":
		return runBuild(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "aspc: unknown command %q\n", args[0])
		printUsage()
		return 1
	}
}

func runBuild(args []string) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "aspc: build takes at most one directory")
		return 2
	}

	manifestPath, err := filepath.Abs(filepath.Join(dir, "asp.yml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	injector := do.New()
	defer injector.Shutdown()

	do.Provide(injector, func(i *do.Injector) (*driver.Manifest, error) {
		return driver.LoadManifest(manifestPath)
	})
	do.Provide(injector, func(i *do.Injector) (*driver.Profile, error) {
		manifest := do.MustInvoke[*driver.Manifest](i)
		return driver.LoadProfile(manifest.Profile)
	})
	do.Provide(injector, func(i *do.Injector) (*driver.BuildResult, error) {
		manifest := do.MustInvoke[*driver.Manifest](i)
		profile := do.MustInvoke[*driver.Profile](i)
		return driver.Build(manifest, profile)
	})

	result, err := do.Invoke[*driver.BuildResult](injector)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, warning)
	}

	manifest := do.MustInvoke[*driver.Manifest](injector)
	written, err := driver.WriteFiles(manifest.Output, result.Files)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, path := range written {
		fmt.Printf("aspc: wrote %s\n", path)
	}
	return 0
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: aspc <command>

commands:
  build [dir]    build the unit described by <dir>/asp.yml (default .)
  version        print version

`)
}
