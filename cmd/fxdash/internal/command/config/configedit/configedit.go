// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configedit implements the "config edit" command.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/fxdash/internal/fxdash/fxdashconfig"
	"github.com/spf13/pflag"
)

// editorFlagName is the flag name for the editor command.
const editorFlagName = "editor"

// NewCommand returns a new config edit command that opens the configuration file in an editor.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Edit the configuration file in $EDITOR",
		Args:  appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Editor is the editor command. Defaults to $EDITOR.
	Editor string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Editor, editorFlagName, "", "The editor to open the file with, defaults to $EDITOR")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	configDirPath := container.ConfigDirPath()
	configFilePath := fxdashconfig.ConfigFilePath(configDirPath)
	// Create the configuration file with the default template if it does not exist.
	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		if _, err := fxdashconfig.InitConfig(configDirPath); err != nil {
			return err
		}
	}
	editor := flags.Editor
	if editor == "" {
		editor = container.Env("EDITOR")
	}
	if editor == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required when EDITOR is not set", editorFlagName)
	}
	cmd := exec.CommandContext(ctx, editor, configFilePath)
	cmd.Stdin = container.Stdin()
	cmd.Stdout = container.Stdout()
	cmd.Stderr = container.Stderr()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	// Report an invalid file right away instead of on the next command.
	if err := fxdashconfig.ValidateConfig(configDirPath); err != nil {
		return err
	}
	_, err := fmt.Fprintf(container.Stdout(), "%s\n", configFilePath)
	return err
}
