package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/clientcli"
	"github.com/closureme/closureme/filesystem"
)

// shell is the interactive menu. The session obtained at login lives here
// and is handed to each operation explicitly.
type shell struct {
	client    *clientcli.Client
	cfg       *clientcli.Config
	prompt    prompter
	formatter clientcli.Formatter
	out       io.Writer
	session   *clientcli.Session
}

type menuEntry struct {
	label        string
	needsSession bool
	run          func(ctx context.Context) error
}

func newShell(client *clientcli.Client, cfg *clientcli.Config, p prompter, f clientcli.Formatter, out io.Writer) *shell {
	return &shell{
		client:    client,
		cfg:       cfg,
		prompt:    p,
		formatter: f,
		out:       out,
		session:   cfg.Session(),
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	return newShell(client, cfg, terminalPrompter{}, getFormatter(), os.Stdout).run(cmd.Context())
}

func (s *shell) menu() []menuEntry {
	return []menuEntry{
		{label: "1. Register", run: s.register},
		{label: "2. Login", run: s.login},
		{label: "3. Upload character", needsSession: true, run: s.upload},
		{label: "4. Download character", needsSession: true, run: s.download},
		{label: "5. List files", needsSession: true, run: s.files},
		{label: "6. Delete character", needsSession: true, run: s.delete},
		{label: "7. Rename character", needsSession: true, run: s.rename},
		{label: "0. Exit"},
	}
}

// run shows the menu until the user exits. Operation failures are printed
// and never end the loop.
func (s *shell) run(ctx context.Context) error {
	entries := s.menu()
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.label
	}

	for {
		idx, err := s.prompt.Choose("Select an option", labels)
		if err != nil {
			if isPromptExit(err) {
				return nil
			}
			return err
		}
		if idx < 0 || idx >= len(entries) {
			_, _ = fmt.Fprintln(s.out, "Invalid option")
			continue
		}

		entry := entries[idx]
		if entry.run == nil {
			_, _ = fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if entry.needsSession && !s.session.Valid() {
			_, _ = fmt.Fprintln(s.out, "Please login first")
			continue
		}

		if err := entry.run(ctx); err != nil {
			if isPromptExit(err) {
				_, _ = fmt.Fprintln(s.out, "Cancelled.")
				continue
			}
			slog.Debug("shell operation failed", "option", entry.label, "error", err)
			_ = s.formatter.FormatError(s.out, err)
		}
	}
}

func (s *shell) register(ctx context.Context) error {
	username, err := s.prompt.Input("Username")
	if err != nil {
		return err
	}
	email, err := s.prompt.Input("Email")
	if err != nil {
		return err
	}
	password, err := s.prompt.Secret("Password")
	if err != nil {
		return err
	}

	user, err := s.client.Register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	return s.formatter.FormatRegister(s.out, user)
}

func (s *shell) login(ctx context.Context) error {
	identifier, err := s.prompt.Input("Username or email")
	if err != nil {
		return err
	}
	password, err := s.prompt.Secret("Password")
	if err != nil {
		return err
	}

	session, err := s.client.Login(ctx, strings.TrimSpace(identifier), password)
	if err != nil {
		return err
	}
	s.session = session
	return s.formatter.FormatLogin(s.out, session)
}

func (s *shell) upload(ctx context.Context) error {
	imagePath, err := s.prompt.Input("Image path")
	if err != nil {
		return err
	}
	appearance, err := s.prompt.Input("Appearance")
	if err != nil {
		return err
	}
	memory, err := s.prompt.Input("Memory")
	if err != nil {
		return err
	}
	fileName, err := s.prompt.Input("File name")
	if err != nil {
		return err
	}

	result, err := s.client.UploadCharacter(ctx, s.session, clientcli.UploadRequest{
		ImagePath:  cleanPath(imagePath),
		Appearance: appearance,
		Memory:     memory,
		FileName:   strings.TrimSpace(fileName),
	})
	if err != nil {
		return err
	}
	return s.formatter.FormatUpload(s.out, result)
}

func (s *shell) download(ctx context.Context) error {
	name, err := s.prompt.Input("Character name")
	if err != nil {
		return err
	}
	choice, err := s.prompt.Input("Download type (1 image, 2 appearance, 3 memory, 4 all)")
	if err != nil {
		return err
	}
	typ, ok := parseDownloadChoice(choice)
	if !ok {
		_, _ = fmt.Fprintln(s.out, "Invalid choice, enter 1, 2, 3 or 4")
		return nil
	}

	_, err = downloadTo(ctx, s.client, s.cfg, s.session, s.formatter, s.out, clientcli.DownloadRequest{
		Name: strings.TrimSpace(name),
		Type: typ,
	})
	return err
}

func (s *shell) files(ctx context.Context) error {
	files, err := s.client.ListFiles(ctx, s.session)
	if err != nil {
		return err
	}
	return s.formatter.FormatFiles(s.out, files)
}

func (s *shell) delete(ctx context.Context) error {
	name, err := s.prompt.Input("File name to delete")
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	ok, err := s.prompt.Confirm(fmt.Sprintf("Delete '%s'", name))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}

	message, err := s.client.DeleteCharacter(ctx, s.session, name)
	if err != nil {
		return err
	}
	return s.formatter.FormatDelete(s.out, name, message)
}

func (s *shell) rename(ctx context.Context) error {
	oldName, err := s.prompt.Input("Current file name")
	if err != nil {
		return err
	}
	newName, err := s.prompt.Input("New file name")
	if err != nil {
		return err
	}
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)

	message, err := s.client.RenameCharacter(ctx, s.session, oldName, newName)
	if err != nil {
		return err
	}
	return s.formatter.FormatRename(s.out, oldName, newName, message)
}

// downloadTo fetches a character into the configured downloads directory.
func downloadTo(ctx context.Context, client *clientcli.Client, cfg *clientcli.Config, session *clientcli.Session,
	f clientcli.Formatter, out io.Writer, req clientcli.DownloadRequest,
) (*clientcli.DownloadReport, error) {
	dir, err := cfg.DownloadsPath()
	if err != nil {
		return nil, fmt.Errorf("downloads directory: %w", err)
	}

	store, err := filesystem.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	report, err := client.DownloadCharacter(ctx, session, req, store)
	if err != nil {
		return nil, err
	}
	return report, f.FormatDownload(out, report)
}

// parseDownloadChoice maps the numbered sub-menu to a download type.
func parseDownloadChoice(choice string) (closureme.DownloadType, bool) {
	switch strings.TrimSpace(choice) {
	case "1":
		return closureme.DownloadImage, true
	case "2":
		return closureme.DownloadAppearance, true
	case "3":
		return closureme.DownloadMemory, true
	case "4":
		return closureme.DownloadAll, true
	default:
		return "", false
	}
}

// cleanPath strips whitespace and surrounding quotes, as left behind by
// dragging a file into a terminal.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, `"'`)
	return strings.TrimSpace(p)
}
