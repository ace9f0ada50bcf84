package router

import (
	"strconv"
	"strings"

	"reelbot/internal/queue"
	"reelbot/internal/slack"
)

// MaxBlocksPerMessage is Slack's limit on blocks in one message. Longer
// listings are split across several messages.
const MaxBlocksPerMessage = 50

// QueueBlocks renders one section per queued movie.
func QueueBlocks(movies []queue.Movie) []slack.Block {
	blocks := make([]slack.Block, 0, len(movies))
	for _, movie := range movies {
		fields := []string{"_" + movie.Title + "_ requested by <@" + movie.Requestor + ">"}
		if night := movie.PlannedMovieNight; night != nil {
			fields = append(fields, movieNightText(*night))
		}
		blocks = append(blocks, slack.SectionFields(fields...))
	}
	return blocks
}

// FallbackText is the plain-text form of a queue listing.
func FallbackText(movies []queue.Movie) string {
	titles := make([]string, 0, len(movies))
	for _, movie := range movies {
		titles = append(titles, movie.Title)
	}
	return strings.Join(titles, ", ")
}

func movieNightText(night queue.MovieNight) string {
	date := night.Date.UTC()
	fallback := date.Format("Mon Jan 2, 2006 15:04 UTC")
	text := "Planned for <!date^" + strconv.FormatInt(date.Unix(), 10) + "^{date_short_pretty} at {time}|" + fallback + ">"
	if night.Host != "" {
		text += " hosted by <@" + night.Host + ">"
	}
	return text
}
