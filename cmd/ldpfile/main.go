package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ldpfile/internal/cli"
	"ldpfile/internal/config"
	"ldpfile/internal/core/logger"
	"ldpfile/internal/core/types"
	"ldpfile/internal/file"
	"ldpfile/internal/provider"

	"github.com/alecthomas/kong"
)

const version = "0.1.0"

type ResourceArgs struct {
	Provider string `arg:"" help:"Provider ID from the config file"`
	Path     string `arg:"" help:"Resource path relative to the provider root"`
}

type InfoCmd struct {
	ResourceArgs `embed:""`
}

type DigestCmd struct {
	ResourceArgs `embed:""`
}

type LinksCmd struct {
	ResourceArgs `embed:""`
}

type ProvidersCmd struct{}

type InitConfigCmd struct {
	Path    string `arg:"" default:"ldpfile.yaml" help:"Where to write the config"`
	BaseURL string `long:"base-url" default:"http://localhost:8080/rest" help:"Repository root URL"`
}

type CLI struct {
	Version    kong.VersionFlag `short:"v" long:"version" help:"Print version and exit"`
	ConfigFile string           `short:"c" long:"config" default:"${config_file}" help:"Path to config file"`
	Debug      bool             `short:"d" long:"debug" help:"Enable debug logging"`

	Info       InfoCmd       `cmd:"info" help:"Show the metadata of a repository file"`
	Digest     DigestCmd     `cmd:"digest" help:"Print the checksums recorded for a file"`
	Links      LinksCmd      `cmd:"links" help:"Print the Link headers of a file"`
	Fetch      FetchCmd      `cmd:"fetch" help:"Download a file and verify its checksum"`
	Providers  ProvidersCmd  `cmd:"providers" help:"List configured providers"`
	InitConfig InitConfigCmd `cmd:"init-config" help:"Write a starter config file"`
}

// setup loads the config, builds the logger and registers providers.
func (c *CLI) setup() (*types.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(config.ResolveConfigPath(c.ConfigFile))
	if err != nil {
		return nil, nil, err
	}

	level := logger.LevelInfo
	if c.Debug || cfg.Debug {
		level = logger.LevelDebug
	}
	log := logger.New(logger.WithName("ldpfile"), logger.WithLevel(level))
	slog.SetDefault(log)

	err = provider.InitializeProviders(cfg.Providers, provider.Options{
		Logger:    log,
		UserAgent: "ldpfile/" + version,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func (r ResourceArgs) open(ctx context.Context, cliRoot *CLI) (*file.File, *types.Config, *slog.Logger, error) {
	cfg, log, err := cliRoot.setup()
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := provider.GetProvider(r.Provider)
	if err != nil {
		return nil, nil, nil, err
	}
	src, err := p.Open(ctx, r.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return file.Open(src), cfg, log, nil
}

func (c *InfoCmd) Run(cliRoot *CLI) error {
	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	f, _, _, err := c.open(ctx, cliRoot)
	if err != nil {
		return err
	}
	return cli.PrintInfo(ctx, os.Stdout, f)
}

func (c *DigestCmd) Run(cliRoot *CLI) error {
	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	f, _, _, err := c.open(ctx, cliRoot)
	if err != nil {
		return err
	}
	return cli.PrintDigests(ctx, os.Stdout, f)
}

func (c *LinksCmd) Run(cliRoot *CLI) error {
	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	f, _, _, err := c.open(ctx, cliRoot)
	if err != nil {
		return err
	}
	return cli.PrintLinks(ctx, os.Stdout, f)
}

func (c *ProvidersCmd) Run(cliRoot *CLI) error {
	cfg, _, err := cliRoot.setup()
	if err != nil {
		return err
	}

	ids := provider.ListProviders()
	fmt.Printf("Found %d providers:\n", len(ids))
	for _, id := range ids {
		pc := cfg.Providers[id]
		location := pc.BaseURL
		if pc.Type == "s3" {
			location = "s3://" + pc.Bucket + "/" + pc.Prefix
		}
		fmt.Printf("  - %s (%s) %s\n", id, pc.Type, location)
	}
	return nil
}

func (c *InitConfigCmd) Run() error {
	pc := types.DefaultProviderConfig()
	pc.Type = "fedora"
	pc.BaseURL = c.BaseURL
	pc.Username = "${FEDORA_USER}"
	pc.Password = "${FEDORA_PASSWORD}"

	cfg := &types.Config{
		Providers: map[string]types.ProviderConfig{"fedora": pc},
		Transfer:  types.DefaultTransferConfig(),
	}
	if err := config.SaveConfig(c.Path, cfg); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", c.Path)
	return nil
}

func main() {
	var cliRoot CLI
	kctx := kong.Parse(
		&cliRoot,
		kong.Vars{
			"version":     version,
			"config_file": "ldpfile.yaml",
		},
		kong.Name("ldpfile"),
		kong.Description("Inspect and download files held in an LDP / Fedora repository"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err := kctx.Run(&cliRoot); err != nil {
		kctx.FatalIfErrorf(err)
	}
}
