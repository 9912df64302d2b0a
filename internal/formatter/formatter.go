// package formatter exports the collection to various formats (JSON, CSV, Markdown, YAML, plain text, HTML)
package formatter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/web"
	"gopkg.in/yaml.v3"
)

// Collection is what an export contains.
type Collection struct {
	Items []models.CatalogItem `json:"laserdiscs" yaml:"laserdiscs"`
	Stats models.Stats         `json:"stats" yaml:"stats"`
}

// Encoder writes a collection in one format.
type Encoder interface {
	Name() string
	Encode(w io.Writer, c Collection) error
}

// EncoderFunc adapts a function to [Encoder].
type EncoderFunc struct {
	name string
	fn   func(w io.Writer, c Collection) error
}

func (e EncoderFunc) Name() string                           { return e.name }
func (e EncoderFunc) Encode(w io.Writer, c Collection) error { return e.fn(w, c) }

var encoders = map[string]Encoder{
	"json":     EncoderFunc{"json", ExportToJSON},
	"csv":      EncoderFunc{"csv", ExportToCSV},
	"markdown": EncoderFunc{"markdown", ExportToMarkdown},
	"yaml":     EncoderFunc{"yaml", ExportToYAML},
	"txt":      EncoderFunc{"txt", ExportToText},
	"html":     EncoderFunc{"html", ExportToHTML},
}

var aliases = map[string]string{"md": "markdown", "yml": "yaml", "text": "txt", "htm": "html"}

// Formats lists the supported export formats.
func Formats() []string {
	return []string{"json", "csv", "markdown", "yaml", "txt", "html"}
}

// New returns the encoder for format. Empty means json.
func New(format string) (Encoder, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	if alias, ok := aliases[format]; ok {
		format = alias
	}
	enc, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", shared.ErrUnsupportedEncoder, format, strings.Join(Formats(), ", "))
	}
	return enc, nil
}

// ExportToJSON writes indented JSON.
func ExportToJSON(w io.Writer, c Collection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportToYAML writes YAML.
func ExportToYAML(w io.Writer, c Collection) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// ExportToCSV writes one row per item with columns: ID, UPC, Title, Year, Director, Genre, Format, Sides, Runtime, Watched, Added, LDDB URL, Notes
func ExportToCSV(w io.Writer, c Collection) error {
	writer := csv.NewWriter(w)

	headers := []string{"ID", "UPC", "Title", "Year", "Director", "Genre", "Format", "Sides", "Runtime", "Watched", "Added", "LDDB URL", "Notes"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range c.Items {
		record := []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.UPC,
			item.Title,
			optionalInt(item.Year),
			item.Director,
			item.Genre,
			item.Format,
			optionalInt(item.Sides),
			optionalInt(item.Runtime),
			strconv.FormatBool(item.Watched),
			formatDate(item.AddedDate),
			item.LDDBURL,
			item.Notes,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// ExportToMarkdown writes a heading, the stats and a checklist of items (checked when watched).
func ExportToMarkdown(w io.Writer, c Collection) error {
	var b strings.Builder

	b.WriteString("# LaserDisc Collection\n\n")
	fmt.Fprintf(&b, "**Total**: %d\n", c.Stats.Total)
	fmt.Fprintf(&b, "**Watched**: %d\n", c.Stats.Watched)
	fmt.Fprintf(&b, "**Unwatched**: %d\n\n", c.Stats.Unwatched)

	b.WriteString("## LaserDiscs\n\n")
	for _, item := range c.Items {
		check := " "
		if item.Watched {
			check = "x"
		}
		title := markdownEscape(item.Title)
		if item.LDDBURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, item.LDDBURL)
		}
		fmt.Fprintf(&b, "- [%s] %s%s\n", check, title, details(item))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ExportToText writes one line per item.
func ExportToText(w io.Writer, c Collection) error {
	var b strings.Builder

	fmt.Fprintf(&b, "LaserDiscs: %d (%d watched, %d unwatched)\n\n", c.Stats.Total, c.Stats.Watched, c.Stats.Unwatched)
	for i, item := range c.Items {
		mark := ""
		if item.Watched {
			mark = " [watched]"
		}
		fmt.Fprintf(&b, "%d. %s%s%s\n", i+1, shared.Sanitize(item.Title), details(item), mark)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ExportToHTML writes the collection page.
func ExportToHTML(w io.Writer, c Collection) error {
	return web.RenderCollection(w, web.CollectionPage{Items: c.Items, Stats: c.Stats})
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// details renders " (1982, Ridley Scott, 117 min)" or "" when nothing is known.
func details(item models.CatalogItem) string {
	parts := []string{}
	if item.Year > 0 {
		parts = append(parts, strconv.Itoa(item.Year))
	}
	if item.Director != "" {
		parts = append(parts, shared.Sanitize(item.Director))
	}
	if rt := shared.FormatRuntime(item.Runtime); rt != "" {
		parts = append(parts, rt)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

var markdownReplacer = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`, "`", "\\`")

func markdownEscape(s string) string {
	return markdownReplacer.Replace(shared.Sanitize(s))
}
