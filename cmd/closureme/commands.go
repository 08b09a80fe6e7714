package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/clientcli"
)

var errDownloadIncomplete = errors.New("some artifacts failed to download")

var (
	saveToken bool

	uploadName       string
	uploadAppearance string
	uploadMemory     string

	downloadType string

	deleteYes bool
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account",
	Long: `Create an account. The password is read from a prompt.

Examples:
  closureme register alice alice@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login <username-or-email>",
	Short: "Log in and print the session token",
	Long: `Log in with a username or email. The password is read from a prompt.

With --save the token is stored in the active profile so later commands
are authenticated; otherwise it is printed for use with --token or
CLOSUREME_TOKEN.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image-path>",
	Short: "Upload a character image with its text artifacts",
	Long: `Upload a character image with its appearance and memory text.

Examples:
  closureme upload ./hero.png --name hero
  closureme upload ./hero.png --name hero --appearance "tall" --memory "likes tea"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var downloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download a character into the downloads directory",
	Long: `Download a character and its artifacts.

The name is resolved by trying <name>, <name>.png and <name>.jpg in order.
Each selected artifact is then downloaded on its own: a missing artifact is
reported and the rest still download. Existing files are replaced.

Examples:
  closureme download hero
  closureme download hero --type memory
  closureme download hero -d ./chars`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"ls", "list"},
	Short:   "List uploaded characters",
	Args:    cobra.NoArgs,
	RunE:    runFiles,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a character",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var renameCmd = &cobra.Command{
	Use:     "rename <name> <new-name>",
	Aliases: []string{"mv"},
	Short:   "Rename a character",
	Args:    cobra.ExactArgs(2),
	RunE:    runRename,
}

func init() {
	loginCmd.Flags().BoolVar(&saveToken, "save", false, "store the token in the active profile")

	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "file name stored on the server (required)")
	uploadCmd.Flags().StringVar(&uploadAppearance, "appearance", "", "appearance description")
	uploadCmd.Flags().StringVar(&uploadMemory, "memory", "", "memory text")
	_ = uploadCmd.MarkFlagRequired("name")

	downloadCmd.Flags().StringVar(&downloadType, "type", string(closureme.DownloadAll), "artifacts to download: image, appearance, memory, all")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, _, err := getClient()
	if err != nil {
		return err
	}

	password, err := terminalPrompter{}.Secret("Password")
	if err != nil {
		return handlePromptError(err)
	}

	user, err := client.Register(cmd.Context(), args[0], args[1], password)
	if err != nil {
		return err
	}
	return getFormatter().FormatRegister(os.Stdout, user)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}

	password, err := terminalPrompter{}.Secret("Password")
	if err != nil {
		return handlePromptError(err)
	}

	session, err := client.Login(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	formatter := getFormatter()
	if err := formatter.FormatLogin(os.Stdout, session); err != nil {
		return err
	}

	if !saveToken {
		if !jsonOutput {
			fmt.Printf("Token: %s\n", session.Token)
		}
		return nil
	}
	return saveSessionToken(cfg, session.Token)
}

// saveSessionToken stores token in the selected profile, creating a default
// profile when the config file has none.
func saveSessionToken(cfg *clientcli.Config, token string) error {
	configPath := getConfigPath()

	file, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		file = &clientcli.ConfigFile{}
	}

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	profile, err := file.GetProfile(name)
	switch {
	case err == nil:
		p := *profile
		p.Token = token
		err = file.UpdateProfile(p)
	case errors.Is(err, clientcli.ErrNoProfiles) || errors.Is(err, clientcli.ErrProfileNotFound):
		if name == "" {
			name = "default"
		}
		err = file.AddProfile(clientcli.Profile{
			Name:         name,
			Endpoint:     cfg.WithDefaults().Endpoint,
			DownloadsDir: cfg.DownloadsDir,
			Token:        token,
			Default:      len(file.Profiles) == 0,
		})
	}
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	if err := file.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if !quiet && !jsonOutput {
		fmt.Printf("Token saved to profile '%s'.\n", name)
	}
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	session, err := requireSession(cfg)
	if err != nil {
		return err
	}

	result, err := client.UploadCharacter(cmd.Context(), session, clientcli.UploadRequest{
		ImagePath:  cleanPath(args[0]),
		Appearance: uploadAppearance,
		Memory:     uploadMemory,
		FileName:   strings.TrimSpace(uploadName),
	})
	if err != nil {
		return err
	}
	return getFormatter().FormatUpload(os.Stdout, result)
}

func runDownload(cmd *cobra.Command, args []string) error {
	typ, err := closureme.ParseDownloadType(downloadType)
	if err != nil {
		return err
	}

	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	session, err := requireSession(cfg)
	if err != nil {
		return err
	}

	report, err := downloadTo(cmd.Context(), client, cfg, session, getFormatter(), os.Stdout, clientcli.DownloadRequest{
		Name: args[0],
		Type: typ,
	})
	if err != nil {
		return err
	}
	if report.HasErrors() {
		return errDownloadIncomplete
	}
	return nil
}

func runFiles(cmd *cobra.Command, _ []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	session, err := requireSession(cfg)
	if err != nil {
		return err
	}

	files, err := client.ListFiles(cmd.Context(), session)
	if err != nil {
		return err
	}
	return getFormatter().FormatFiles(os.Stdout, files)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	session, err := requireSession(cfg)
	if err != nil {
		return err
	}

	if !deleteYes {
		ok, promptErr := terminalPrompter{}.Confirm(fmt.Sprintf("Delete '%s'", name))
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	message, err := client.DeleteCharacter(cmd.Context(), session, name)
	if err != nil {
		return err
	}
	return getFormatter().FormatDelete(os.Stdout, name, message)
}

func runRename(cmd *cobra.Command, args []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	session, err := requireSession(cfg)
	if err != nil {
		return err
	}

	message, err := client.RenameCharacter(cmd.Context(), session, args[0], args[1])
	if err != nil {
		return err
	}
	return getFormatter().FormatRename(os.Stdout, args[0], args[1], message)
}
