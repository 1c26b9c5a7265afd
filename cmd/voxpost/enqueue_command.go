package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vincent-petithory/dataurl"

	"voxpost/internal/api"
	"voxpost/internal/config"
	"voxpost/internal/pipeline"
)

var audioMediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".aac":  "audio/aac",
}

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var (
		userID    string
		articleID string
		model     string
		lang      string
		blogType  string
		wordCount string
		mediaType string
	)

	cmd := &cobra.Command{
		Use:   "enqueue <audio-file>",
		Short: "Queue an audio recording for article generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}
			if len(data) == 0 {
				return fmt.Errorf("audio file %s is empty", path)
			}
			resolvedType := strings.TrimSpace(mediaType)
			if resolvedType == "" {
				if resolvedType, err = detectAudioType(path, data); err != nil {
					return err
				}
			}

			resp, err := ctx.client().CreateArticle(cmd.Context(), api.CreateArticleRequest{
				ArticleID:     strings.TrimSpace(articleID),
				UserID:        strings.TrimSpace(userID),
				AudioDataURI:  dataurl.New(data, resolvedType).String(),
				SelectedModel: strings.TrimSpace(model),
				Language:      lang,
				BlogType:      blogType,
				WordCount:     wordCount,
			})
			if err != nil {
				return ctx.wrapDialError(err)
			}

			out := cmd.OutOrStdout()
			if resp.Queued {
				fmt.Fprintf(out, "Queued article %s for user %s (%s, %d bytes)\n", resp.ArticleID, resp.UserID, resolvedType, len(data))
			} else {
				fmt.Fprintf(out, "Article %s was already queued\n", resp.ArticleID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the article (required)")
	cmd.Flags().StringVar(&articleID, "id", "", "Article id (generated when omitted)")
	cmd.Flags().StringVarP(&model, "model", "m", pipeline.DefaultModel, "Style profile id, or \"default\"")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Spoken language as a BCP 47 tag (defaults to en)")
	cmd.Flags().StringVar(&blogType, "blog-type", "", "One of "+strings.Join(pipeline.BlogTypes, ", "))
	cmd.Flags().StringVar(&wordCount, "word-count", "", "short, medium, long, or a target number of words")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "Override the detected audio media type")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// detectAudioType resolves the media type from the file extension, falling
// back to content sniffing.
func detectAudioType(path string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mediaType, ok := audioMediaTypes[ext]; ok {
		return mediaType, nil
	}
	detected, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "", fmt.Errorf("detect media type for %s: %w", path, err)
	}
	switch {
	case strings.HasPrefix(detected, "audio/"), detected == "video/webm":
		return detected, nil
	case detected == "application/ogg":
		return "audio/ogg", nil
	}
	return "", errors.New("could not detect an audio media type for " + path + "; pass --media-type")
}
