// Command tiktok streams a TikTok user's videos, likes and playlists.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/spf13/cobra"

	tiktok "github.com/RavensCloud/tiktok-userfeed"
)

var version = "dev"

// options are the root persistent flags.
type options struct {
	proxy   string
	cookies string
	jsonOut bool
}

type pagingFlags struct {
	count  int
	cursor string
}

type userFlags struct {
	secUID string
	userID string
}

func main() {
	if err := loadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "tiktok",
		Short:        "Stream TikTok user videos, likes and playlists",
		Version:      version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.proxy, "proxy", "", "Proxy URL (http/https/socks5), overrides TIKTOK_PROXY")
	flags.StringVar(&opts.cookies, "cookies", "", "Path to cookies JSON file, overrides TIKTOK_COOKIES")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print raw JSON, one item per line")

	root.AddCommand(
		newUserCmd(opts),
		newVideosCmd(opts),
		newLikedCmd(opts),
		newPlaylistsCmd(opts),
		newPlaylistCmd(opts),
		newHashtagCmd(opts),
		newSearchCmd(opts),
		newLoginCmd(opts),
	)
	return root
}

func addPagingFlags(cmd *cobra.Command, pf *pagingFlags, defaultCount int) {
	cmd.Flags().IntVar(&pf.count, "count", defaultCount, "Number of items to fetch")
	cmd.Flags().StringVar(&pf.cursor, "cursor", "0", "Cursor to start from")
}

func addUserFlags(cmd *cobra.Command, uf *userFlags) {
	cmd.Flags().StringVar(&uf.secUID, "sec-uid", "", "Address the user by secUid instead of username")
	cmd.Flags().StringVar(&uf.userID, "id", "", "User id, used with --sec-uid")
}

// session builds the scraper from environment plus flags. withBrowser
// launches the signing browser, which every web API command needs.
func session(opts *options, withBrowser bool) (*tiktok.Scraper, *tiktok.Client, error) {
	cfg := sessionConfig(opts)

	s, err := tiktok.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	if withBrowser {
		if cfg.CookiesFile != "" {
			err = s.LoginWithCookies(cfg.CookiesFile)
		} else {
			err = s.InitBrowser()
		}
		if err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("init browser: %w", err)
		}
	}

	return s, s.Client(), nil
}

func sessionConfig(opts *options) tiktok.Config {
	logger := newLogger(env.Str("TIKTOK_LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	cfg := configFromEnv(logger)
	if opts.proxy != "" {
		cfg.Proxy = opts.proxy
	}
	if opts.cookies != "" {
		cfg.CookiesFile = opts.cookies
	}
	return cfg
}

func userFromArgs(c *tiktok.Client, uf *userFlags, args []string) (*tiktok.User, error) {
	switch {
	case uf.secUID != "":
		return c.UserByID(uf.userID, uf.secUID), nil
	case len(args) == 1:
		return c.User(args[0]), nil
	default:
		return nil, fmt.Errorf("username argument or --sec-uid required")
	}
}

func newUserCmd(opts *options) *cobra.Command {
	var (
		fromPage bool
		uf       userFlags
	)
	cmd := &cobra.Command{
		Use:   "user <username>",
		Short: "Look up a user profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, !fromPage)
			if err != nil {
				return err
			}
			defer s.Close()

			var user *tiktok.User
			if fromPage {
				if len(args) != 1 {
					return fmt.Errorf("--page requires a username")
				}
				raw, err := s.ProfilePage(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if user, err = c.UserFromData(raw); err != nil {
					return err
				}
			} else {
				if user, err = userFromArgs(c, &uf, args); err != nil {
					return err
				}
				if _, err := user.Info(cmd.Context()); err != nil {
					return err
				}
			}
			return printUser(cmd.OutOrStdout(), user, opts.jsonOut)
		},
	}
	cmd.Flags().BoolVar(&fromPage, "page", false, "Read the profile page instead of the API (no browser needed)")
	addUserFlags(cmd, &uf)
	return cmd
}

func newVideosCmd(opts *options) *cobra.Command {
	var (
		single bool
		pf     pagingFlags
		uf     userFlags
	)
	cmd := &cobra.Command{
		Use:   "videos <username>",
		Short: "Stream a user's posted videos",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := userFromArgs(c, &uf, args)
			if err != nil {
				return err
			}
			if single {
				page, err := user.VideosPage(cmd.Context(), pf.count, pf.cursor)
				if err != nil {
					return err
				}
				return printVideoPage(cmd.OutOrStdout(), page, opts.jsonOut)
			}
			return printVideos(cmd.Context(), cmd.OutOrStdout(), user.Videos(pf.count, pf.cursor), opts.jsonOut)
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "Fetch one page and print the next cursor")
	addPagingFlags(cmd, &pf, 30)
	addUserFlags(cmd, &uf)
	return cmd
}

func newLikedCmd(opts *options) *cobra.Command {
	var (
		pf pagingFlags
		uf userFlags
	)
	cmd := &cobra.Command{
		Use:   "liked <username>",
		Short: "Stream videos a user liked (public like lists only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := userFromArgs(c, &uf, args)
			if err != nil {
				return err
			}
			return printVideos(cmd.Context(), cmd.OutOrStdout(), user.Liked(pf.count, pf.cursor), opts.jsonOut)
		},
	}
	addPagingFlags(cmd, &pf, 30)
	addUserFlags(cmd, &uf)
	return cmd
}

func newPlaylistsCmd(opts *options) *cobra.Command {
	var (
		pf pagingFlags
		uf userFlags
	)
	cmd := &cobra.Command{
		Use:   "playlists <username>",
		Short: "Stream a user's playlists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := userFromArgs(c, &uf, args)
			if err != nil {
				return err
			}
			return printPlaylists(cmd.Context(), cmd.OutOrStdout(), user.Playlists(pf.count, pf.cursor), opts.jsonOut)
		},
	}
	addPagingFlags(cmd, &pf, 20)
	addUserFlags(cmd, &uf)
	return cmd
}

func newPlaylistCmd(opts *options) *cobra.Command {
	var pf pagingFlags
	cmd := &cobra.Command{
		Use:   "playlist <mix-id>",
		Short: "Stream the videos in a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			p := c.PlaylistByID(args[0])
			return printVideos(cmd.Context(), cmd.OutOrStdout(), p.Videos(pf.count, pf.cursor), opts.jsonOut)
		},
	}
	addPagingFlags(cmd, &pf, 30)
	return cmd
}

func newHashtagCmd(opts *options) *cobra.Command {
	var pf pagingFlags
	cmd := &cobra.Command{
		Use:   "hashtag <tag>",
		Short: "Stream videos under a hashtag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			h := c.Hashtag(args[0])
			return printVideos(cmd.Context(), cmd.OutOrStdout(), h.Videos(pf.count, pf.cursor), opts.jsonOut)
		},
	}
	addPagingFlags(cmd, &pf, 30)
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search videos by keyword (needs a logged-in session)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := session(opts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			return printVideos(cmd.Context(), cmd.OutOrStdout(), c.SearchVideos(args[0], count), opts.jsonOut)
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "Number of items to fetch")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var user, pass, save string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser and save session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("login requires --user and --pass")
			}
			// Logging in starts a fresh session, so no cookie file is loaded.
			cfg := sessionConfig(opts)
			cfg.CookiesFile = ""
			s, err := tiktok.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintln(cmd.ErrOrStderr(), "Logging in...")
			if err := s.Login(user, pass); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := s.SaveCookies(save); err != nil {
				return fmt.Errorf("save cookies: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in! Cookies saved to %s\n", save)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "TikTok username or email")
	cmd.Flags().StringVar(&pass, "pass", "", "TikTok password")
	cmd.Flags().StringVar(&save, "save-cookies", "cookies.json", "Path to save cookies after login")
	return cmd
}
