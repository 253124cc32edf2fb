package commands

import "git.home.luguber.info/inful/docsite/internal/version"

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	g.printf("%s\n", version.String())
	return nil
}
