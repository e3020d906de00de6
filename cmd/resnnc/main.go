// Command resnnc compiles a topology document into layer descriptors for the
// hardware code generator.
//
//	resnnc -topology net.yaml -out build -format json
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tsawler/go-resnnance/builder"
	"github.com/tsawler/go-resnnance/manifest"
	"github.com/tsawler/go-resnnance/topology"
)

type options struct {
	topology string
	out      string
	format   string
	summary  bool
	verbose  bool
}

func (o *options) validate() error {
	if o.topology == "" {
		return fmt.Errorf("-topology is required")
	}
	if o.out == "" {
		return fmt.Errorf("-out cannot be empty")
	}
	if _, err := manifest.ParseFormat(o.format); err != nil {
		return err
	}
	return nil
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("resnnc", flag.ContinueOnError)
	fs.StringVar(&opts.topology, "topology", "", "Topology document (YAML or JSON)")
	fs.StringVar(&opts.out, "out", "build", "Build directory")
	fs.StringVar(&opts.format, "format", "json", "Descriptor format: json, proto")
	fs.BoolVar(&opts.summary, "summary", false, "Print the model summary")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func run(opts *options, stdout io.Writer, logger *log.Logger) error {
	net, err := topology.Load(opts.topology)
	if err != nil {
		return err
	}

	buildLogger := log.New(io.Discard, "", 0)
	if opts.verbose {
		buildLogger = logger
	}

	model, err := builder.New(builder.DefaultRegistry(), builder.WithLogger(buildLogger)).Build(net)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if opts.summary {
		fmt.Fprint(stdout, model.Summary())
	}

	format, _ := manifest.ParseFormat(opts.format)
	renderer := manifest.NewDirRenderer(opts.out, format, logger)
	if err := renderer.Render(model); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("resnnc: ")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	if err := run(opts, os.Stdout, log.Default()); err != nil {
		log.Fatal(err)
	}
}
