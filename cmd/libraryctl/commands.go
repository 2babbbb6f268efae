package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"media-library/internal/authz"
	"media-library/internal/filesystem"
	"media-library/internal/library"
	"media-library/internal/photolibrary"
	"media-library/internal/render"
	"media-library/internal/startup"
)

var (
	readAccess  = photolibrary.AuthorizationOptions{Read: true}
	writeAccess = photolibrary.AuthorizationOptions{Write: true}
)

func newIndexCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the media directory and refresh the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withLibrary(cmd, photolibrary.AuthorizationOptions{}, func(ctx context.Context, lib *photolibrary.Service) error {
				start := time.Now()
				if err := lib.IndexNow(ctx); err != nil {
					return err
				}
				status := lib.Indexer().GetHealthStatus()
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files in %d folders (%v)\n",
					status.FilesIndexed, status.FoldersIndexed, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

func newAuthorizeCommand(g *globals) *cobra.Command {
	var write, reset bool
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Request library access and print the resulting state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withLibrary(cmd, photolibrary.AuthorizationOptions{}, func(ctx context.Context, lib *photolibrary.Service) error {
				if reset {
					for _, c := range []authz.Capability{authz.Read, authz.Write} {
						if err := lib.ResetAuthorization(ctx, c); err != nil {
							return err
						}
					}
				}
				err := lib.RequestAuthorization(ctx, photolibrary.AuthorizationOptions{Read: true, Write: write})
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "read:  %s\n", lib.AuthorizationState(authz.Read))
				fmt.Fprintf(out, "write: %s\n", lib.AuthorizationState(authz.Write))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "also request write access")
	cmd.Flags().BoolVar(&reset, "reset", false, "forget earlier answers before asking")
	return cmd
}

func newLibraryCommand(g *globals) *cobra.Command {
	opts := library.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Stream library chunks to stdout as NDJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				stream, err := lib.GetLibrary(ctx, opts)
				if err != nil {
					return err
				}
				defer stream.Close()

				enc := json.NewEncoder(cmd.OutOrStdout())
				for chunk := range stream.C {
					if err := enc.Encode(chunk); err != nil {
						return err
					}
				}
				return stream.Err()
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.ItemsInChunk, "items-in-chunk", opts.ItemsInChunk, "maximum items per chunk")
	flags.Float64Var(&opts.ChunkTimeSec, "chunk-time", opts.ChunkTimeSec, "seconds before a partial chunk is flushed")
	flags.IntVar(&opts.MaxItems, "max-items", opts.MaxItems, "stop after this many items (0 = all)")
	flags.BoolVar(&opts.IncludeImages, "images", opts.IncludeImages, "include images")
	flags.BoolVar(&opts.IncludeVideos, "videos", opts.IncludeVideos, "include videos")
	flags.BoolVar(&opts.IncludeAlbumData, "album-data", opts.IncludeAlbumData, "include album membership")
	flags.BoolVar(&opts.IncludeCloudData, "cloud-data", opts.IncludeCloudData, "include items without a local file")
	flags.BoolVar(&opts.UseOriginalFileNames, "original-names", opts.UseOriginalFileNames, "report original file names")
	flags.IntVar(&opts.ThumbnailWidth, "thumbnail-width", opts.ThumbnailWidth, "prefetched thumbnail width")
	flags.IntVar(&opts.ThumbnailHeight, "thumbnail-height", opts.ThumbnailHeight, "prefetched thumbnail height")
	flags.Float64Var(&opts.Quality, "quality", opts.Quality, "prefetched thumbnail quality (0-1)")
	return cmd
}

func newAlbumsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "albums",
		Short: "List albums as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				items, err := lib.GetAlbums(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
}

func newMomentsCommand(g *globals) *cobra.Command {
	var opts photolibrary.MomentOptions
	cmd := &cobra.Command{
		Use:   "moments",
		Short: "List moments as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				items, err := lib.GetMoments(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	cmd.Flags().StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD")
	return cmd
}

func newThumbnailCommand(g *globals) *cobra.Command {
	var opts photolibrary.ThumbnailOptions
	var output string
	cmd := &cobra.Command{
		Use:   "thumbnail <id>",
		Short: "Render a thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				img, err := lib.GetThumbnail(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return writeImage(cmd.OutOrStdout(), output, img)
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.Width, "width", 0, "thumbnail width")
	flags.IntVar(&opts.Height, "height", 0, "thumbnail height")
	flags.Float64Var(&opts.Quality, "quality", 0, "encoder quality (0-1)")
	flags.BoolVar(&opts.DataURL, "data-url", false, "print a data URL instead of bytes")
	flags.StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newPhotoCommand(g *globals) *cobra.Command {
	var opts photolibrary.PhotoOptions
	var output string
	cmd := &cobra.Command{
		Use:   "photo <id>",
		Short: "Render a full-size photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				img, err := lib.GetPhoto(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return writeImage(cmd.OutOrStdout(), output, img)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.DataURL, "data-url", false, "print a data URL instead of bytes")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newBytesCommand(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bytes <id>",
		Short: "Copy an item's original bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, readAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				data, _, err := lib.GetLibraryItemBytes(ctx, args[0])
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, data)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newSaveImageCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save-image <url> <album>",
		Short: "Import an image into an album and print the new item",
		Long: `Import an image into an album, creating the album if needed. The
source may be a local path, a file:// URL, an http(s) URL or a data URI.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, writeAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				item, err := lib.SaveImage(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), item)
			})
		},
	}
}

func newSaveVideoCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save-video <url> <album>",
		Short: "Import a video into an album",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, writeAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				if err := lib.SaveVideo(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "saved")
				return nil
			})
		},
	}
}

func newFavoriteCommand(g *globals) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Mark an item as a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withLibrary(cmd, writeAccess, func(ctx context.Context, lib *photolibrary.Service) error {
				return lib.SetFavorite(ctx, args[0], !off)
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "clear the favorite flag instead")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), startup.GetBuildInfo())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeImage(w io.Writer, path string, img *render.RenderedImage) error {
	if img.DataURL != "" {
		return writeOutput(w, path, []byte(img.DataURL+"\n"))
	}
	return writeOutput(w, path, img.Data)
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	return filesystem.WriteFileAtomic(path, data, 0o644, filesystem.DefaultRetryConfig())
}
