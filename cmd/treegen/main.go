package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dropforge/merkle-distributor-go/pkg/distribution"
	"github.com/dropforge/merkle-distributor-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "treegen",
		Usage: "Build and audit merkle distribution artifacts",
		Description: `Turns a balance map (JSON object of account -> amount) into a
distribution artifact: the merkle root, the token total, and a proof for
every account. The audit command re-derives the root from an artifact's
claims alone and checks every proof, which is how third parties confirm a
published distribution.`,
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build an artifact from a balance map",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Balance map JSON file ({\"0x..\": \"0xamount\", ...})",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Artifact output path",
						Required: true,
					},
				},
				Action: runBuild,
			},
			{
				Name:  "audit",
				Usage: "Recompute an artifact's root from its claims and verify every proof",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artifact",
						Aliases:  []string{"a"},
						Usage:    "Artifact JSON file to audit",
						Required: true,
					},
				},
				Action: runAudit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runBuild(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	f, err := os.Open(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to open balance map: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := distribution.ReadBalanceMap(f)
	if err != nil {
		return err
	}

	artifact, err := distribution.ParseBalanceMap(entries)
	if err != nil {
		return err
	}

	if err := distribution.WriteArtifact(c.String("output"), artifact); err != nil {
		return err
	}

	l.Sugar().Infow("Artifact written",
		"output", c.String("output"),
		"root", artifact.MerkleRoot.Hex(),
		"accounts", len(artifact.Claims),
		"token_total", artifact.TokenTotal.String())
	return nil
}

func runAudit(c *cli.Context) error {
	artifact, err := distribution.LoadArtifact(c.String("artifact"))
	if err != nil {
		return err
	}

	if err := artifact.Verify(); err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	fmt.Printf("ok: root %s, %d accounts, token total %s\n",
		artifact.MerkleRoot.Hex(), len(artifact.Claims), artifact.TokenTotal.String())
	return nil
}
