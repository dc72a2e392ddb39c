package main

import (
	"context"
	"fmt"
	"io"

	tiktok "github.com/RavensCloud/tiktok-userfeed"
)

func printUser(w io.Writer, u *tiktok.User, jsonOut bool) error {
	if jsonOut {
		_, err := fmt.Fprintf(w, "%s\n", u.Raw())
		return err
	}
	a := u.Profile()
	fmt.Fprintf(w, "User:      %s\n", a.Username)
	fmt.Fprintf(w, "ID:        %s\n", a.ID)
	fmt.Fprintf(w, "SecUID:    %s\n", a.SecUID)
	fmt.Fprintf(w, "Followers: %d\n", a.FollowerCount)
	fmt.Fprintf(w, "Following: %d\n", a.FollowingCount)
	fmt.Fprintf(w, "Hearts:    %d\n", a.HeartCount)
	fmt.Fprintf(w, "Videos:    %d\n", a.VideoCount)
	fmt.Fprintf(w, "Verified:  %v\n", a.Verified)
	fmt.Fprintf(w, "Bio:       %s\n", a.Bio)
	return nil
}

func printVideo(w io.Writer, i int, v *tiktok.Video, jsonOut bool) {
	if jsonOut {
		fmt.Fprintf(w, "%s\n", v.Raw)
		return
	}
	fmt.Fprintf(w, "[%d] %s by @%s - %d views, %d likes (%s)\n",
		i, v.ID, v.Username, v.Views, v.Likes,
		v.CreatedAt.Format("2006-01-02"),
	)
	if v.Description != "" {
		fmt.Fprintf(w, "    %s\n", v.Description)
	}
}

// printVideos prints items as they arrive so long pagination shows progress.
func printVideos(ctx context.Context, w io.Writer, p *tiktok.Pager[*tiktok.Video], jsonOut bool) error {
	n := 0
	for v, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		n++
		printVideo(w, n, v, jsonOut)
	}
	if !jsonOut {
		fmt.Fprintf(w, "\nTotal: %d videos\n", n)
	}
	return nil
}

func printVideoPage(w io.Writer, page tiktok.VideoPage, jsonOut bool) error {
	for i, v := range page.Videos {
		printVideo(w, i+1, v, jsonOut)
	}
	if !jsonOut {
		fmt.Fprintf(w, "\nTotal: %d videos, next cursor %q, has more: %v\n", len(page.Videos), page.Cursor, page.HasMore)
	}
	return nil
}

func printPlaylists(ctx context.Context, w io.Writer, p *tiktok.Pager[*tiktok.Playlist], jsonOut bool) error {
	n := 0
	for pl, err := range p.All(ctx) {
		if err != nil {
			return err
		}
		n++
		if jsonOut {
			fmt.Fprintf(w, "%s\n", pl.Raw)
			continue
		}
		fmt.Fprintf(w, "[%d] %s %q - %d videos\n", n, pl.ID, pl.Name, pl.VideoCount)
	}
	if !jsonOut {
		fmt.Fprintf(w, "\nTotal: %d playlists\n", n)
	}
	return nil
}
