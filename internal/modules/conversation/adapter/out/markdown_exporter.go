package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tobetutor/internal/modules/conversation/domain"
	conversationout "tobetutor/internal/modules/conversation/port/out"
	"tobetutor/internal/platform/markdown"
	"tobetutor/internal/platform/slug"
)

// MarkdownTranscriptExporter writes a transcript as a markdown note with
// YAML frontmatter.
type MarkdownTranscriptExporter struct{}

var _ conversationout.TranscriptExporter = MarkdownTranscriptExporter{}

func NewMarkdownTranscriptExporter() MarkdownTranscriptExporter {
	return MarkdownTranscriptExporter{}
}

func (MarkdownTranscriptExporter) Export(_ context.Context, session domain.Session, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	short := session.ID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s-%s-%s.md", session.StartedAt.Format("2006-01-02"), slug.Make(session.UserName, "anonymous"), short)
	path := filepath.Join(dir, name)

	summary := session.Summary()
	fields := []markdown.Field{
		{Key: "schema_version", Value: domain.SchemaVersion},
		{Key: "id", Value: session.ID},
		{Key: "user_name", Value: session.UserName},
		{Key: "phase", Value: session.Phase.String()},
		{Key: "started_at", Value: session.StartedAt.Format(time.RFC3339)},
	}
	if !session.EndedAt.IsZero() {
		fields = append(fields, markdown.Field{Key: "ended_at", Value: session.EndedAt.Format(time.RFC3339)})
	}
	fields = append(fields,
		markdown.Field{Key: "entries", Value: summary.Entries},
		markdown.Field{Key: "accepted", Value: summary.Accepted},
	)

	rendered, err := markdown.RenderFrontmatter(fields, renderTranscript(session))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write transcript note: %w", err)
	}
	return path, nil
}

func renderTranscript(session domain.Session) string {
	var b strings.Builder
	title := session.UserName
	if title == "" {
		title = "Anonymous"
	}
	fmt.Fprintf(&b, "# Practice with %s\n\n", title)
	for _, e := range session.Transcript {
		who := "Bot"
		if e.Speaker == domain.SpeakerUser {
			who = title
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", who, e.At.Format("15:04:05"), e.Text)
	}
	return b.String()
}
