package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"hxc/images"
	"hxc/links"
	"hxc/richtext"
	"hxc/state"
)

// Render is "render" command action: it compiles single html fragment and
// prints resulting text and runs, so conversion could be inspected without
// producing workbook.
func Render(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	env.Charset = lookupCharset(cmd.String("charset"), "Forcefully decoding input", log)

	var in io.Reader = os.Stdin
	if len(src) > 0 && src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("unable to open source: %w", err)
		}
		defer f.Close()
		in = f
	} else {
		src = "STDIN"
	}
	markup, err := readMarkup(in, env.Charset)
	if err != nil {
		return err
	}
	log.Debug("Rendering fragment", zap.String("source", src), zap.Int("bytes", len(markup)))

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	return render(out, New(nil, &env.Cfg.Converter, log), markup, cmd.Bool("tree"))
}

func render(w io.Writer, conv *Converter, markup string, tree bool) error {
	if tree {
		dump, err := conv.DumpTree(markup)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, dump); err != nil {
			return err
		}
	}

	frag, err := conv.ToRichText(markup)
	if err != nil {
		return err
	}
	if _, err := frag.WriteTo(w); err != nil {
		return err
	}

	root, err := richtext.Parse(markup)
	if err != nil {
		return err
	}
	if href, ok := links.FirstHref(root); ok {
		if _, err := fmt.Fprintf(w, "link: %s\n", href); err != nil {
			return err
		}
	}
	for i, src := range images.Sources(root) {
		if _, err := fmt.Fprintf(w, "image %d (row +%d): %q\n", i, i, src); err != nil {
			return err
		}
	}
	return nil
}
