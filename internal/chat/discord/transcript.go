package discord

import (
	"context"
	"html/template"
	"strings"

	"github.com/debnet/fallout-bot/internal/chat"
)

// Transcripts are self-contained HTML files small enough to attach to a
// direct message.
var transcriptTmpl = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>#{{.Channel}}</title>
<style>
body { background: #36393f; color: #dcddde; font-family: sans-serif; margin: 0; padding: 1em; }
h1 { color: #fff; font-size: 1.2em; border-bottom: 1px solid #4f545c; padding-bottom: .5em; }
.msg { margin: .75em 0; }
.author { color: #fff; font-weight: bold; }
.when { color: #72767d; font-size: .8em; margin-left: .5em; }
.body { white-space: pre-wrap; margin-top: .15em; }
</style>
</head>
<body>
<h1>#{{.Channel}}</h1>
{{range .Messages}}<div class="msg">
<span class="author">{{.Author}}</span><span class="when">{{.When}}</span>
<div class="body">{{.Content}}</div>
</div>
{{end}}</body>
</html>
`))

type transcriptMessage struct {
	Author  string
	When    string
	Content string
}

type transcriptData struct {
	Channel  string
	Messages []transcriptMessage
}

// ExportTranscript renders the given messages as an HTML transcript. The
// timestamps use the session's configured timezone.
func (s *Session) ExportTranscript(_ context.Context, ch chat.Channel, msgs []chat.Message) (string, error) {
	data := transcriptData{Channel: ch.Name}
	for _, m := range msgs {
		data.Messages = append(data.Messages, transcriptMessage{
			Author:  m.Author.Name(),
			When:    m.Timestamp.In(s.loc).Format("2006-01-02 15:04:05"),
			Content: m.Content,
		})
	}
	var buf strings.Builder
	if err := transcriptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
