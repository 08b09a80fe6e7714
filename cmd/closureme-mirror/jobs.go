package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/mirror"
)

var (
	fileName string
	voiceURL string
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Download every pending image",
	Long: `Fetch the pending image queue from the API and download each image
from the bucket into the image directory. Images already on disk are
skipped; a failed image does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: runBatch(func(cmd *cobra.Command, m *mirror.Mirror) (*mirror.BatchReport, error) {
		return m.PendingImages(cmd.Context())
	}),
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Download a character memory file",
	Long: `Download uploads/<name>_memory.txt into the memory directory as
<name>.txt. An existing file is kept.`,
	Args: cobra.NoArgs,
	RunE: runSingle(func(cmd *cobra.Command, m *mirror.Mirror) (closureme.Transfer, error) {
		return m.Memory(cmd.Context(), fileName)
	}),
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Download a character profile file",
	Long: `Download uploads/<name>_profile.json into the profile directory as
<name>.json. An existing file is kept.`,
	Args: cobra.NoArgs,
	RunE: runSingle(func(cmd *cobra.Command, m *mirror.Mirror) (closureme.Transfer, error) {
		return m.Profile(cmd.Context(), fileName)
	}),
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Download a character model",
	Long: `Download uploads/<name>.fbx into the model directory as
AIAgentModel.fbx, replacing the previous model.`,
	Args: cobra.NoArgs,
	RunE: runSingle(func(cmd *cobra.Command, m *mirror.Mirror) (closureme.Transfer, error) {
		return m.Model(cmd.Context(), fileName)
	}),
}

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Download a voice sample",
	Long: `Download the object named by the path of --url into the voice
directory as default.wav, replacing the previous sample.`,
	Args: cobra.NoArgs,
	RunE: runSingle(func(cmd *cobra.Command, m *mirror.Mirror) (closureme.Transfer, error) {
		return m.Voice(cmd.Context(), voiceURL)
	}),
}

var uploadFBXCmd = &cobra.Command{
	Use:   "upload-fbx",
	Short: "Upload every FBX file in the FBX directory",
	Long: `Upload each .fbx file in the FBX directory to
fbx/temp/<stem>_init.fbx.`,
	Args: cobra.NoArgs,
	RunE: runBatch(func(cmd *cobra.Command, m *mirror.Mirror) (*mirror.BatchReport, error) {
		return m.UploadFBX(cmd.Context())
	}),
}

var writeIndexCmd = &cobra.Command{
	Use:   "write-index",
	Short: "Write the character name to index.txt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, closeFn, err := newMirror(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := m.WriteIndex(cmd.Context(), fileName)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, map[string]string{"path": p, "name": fileName})
		}
		fmt.Printf("Wrote %s\n", p)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{memoryCmd, profileCmd, modelCmd, writeIndexCmd} {
		cmd.Flags().StringVar(&fileName, "file-name", "", "character file name (required)")
		_ = cmd.MarkFlagRequired("file-name")
	}
	voiceCmd.Flags().StringVar(&voiceURL, "url", "", "voice sample URL (required)")
	_ = voiceCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(imagesCmd, memoryCmd, profileCmd, modelCmd, voiceCmd, uploadFBXCmd, writeIndexCmd)
}

type batchJob func(cmd *cobra.Command, m *mirror.Mirror) (*mirror.BatchReport, error)

type singleJob func(cmd *cobra.Command, m *mirror.Mirror) (closureme.Transfer, error)

func runBatch(job batchJob) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		m, closeFn, err := newMirror(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := job(cmd, m)
		if err != nil {
			return err
		}

		slog.Info("job complete", "job", cmd.Name(),
			"downloaded", report.Downloaded, "uploaded", report.Uploaded,
			"skipped", report.Skipped, "failed", report.Failed)

		if err := printBatch(os.Stdout, report); err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d transfers failed", report.Failed, len(report.Transfers))
		}
		return nil
	}
}

func runSingle(job singleJob) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		m, closeFn, err := newMirror(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		t, err := job(cmd, m)
		if t.Job != "" {
			if printErr := printTransfer(os.Stdout, t); printErr != nil {
				return printErr
			}
		}
		return err
	}
}
