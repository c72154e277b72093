// Command word2ppt converts Word documents into presentations without running the API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"converterapi/internal/config"
	"converterapi/internal/logger"
	"converterapi/internal/model"
	"converterapi/internal/service"
	"converterapi/internal/storage"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:          "word2ppt",
		Short:        "Convert Word documents to PowerPoint presentations",
		SilenceUsage: true,
	}
	root.AddCommand(newConvertCmd(fsys))
	return root
}

func newConvertCmd(fsys afero.Fs) *cobra.Command {
	cfg := config.Load()

	var (
		outDir  string
		details bool
	)

	cmd := &cobra.Command{
		Use:   "convert <file.docx>...",
		Short: "Convert one or more .docx files",
		Long: `Convert one or more .docx files into .pptx presentations.

Every body paragraph becomes a title slide. Each presentation is written to
<out-dir>/<name>.pptx, replacing an existing file of the same name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "console", time.UTC)

			store, err := storage.NewFilesystemWithFs(fsys, outDir)
			if err != nil {
				return err
			}
			svc := service.NewConverterService(store, service.ConvertOptions{
				DetailsSlide:     details,
				MaxDocumentBytes: int64(cfg.Convert.BodyLimit()),
			}, log)

			failed := 0
			for _, path := range args {
				art, err := convertFile(cmd.Context(), fsys, svc, path)
				if err != nil {
					log.Error().Err(err).Str("file", path).Msg("conversion failed")
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d slides)\n", path, art.Path, art.SlideCount)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", cfg.Storage.BaseDir, "directory presentations are written to (ARTIFACT_DIR)")
	cmd.Flags().BoolVar(&details, "details", cfg.Convert.DetailsSlide, "append a trailing Details slide (CONVERT_DETAILS_SLIDE)")
	return cmd
}

func convertFile(ctx context.Context, fsys afero.Fs, svc service.ConverterService, path string) (*model.Artifact, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return svc.Convert(ctx, f, path)
}
