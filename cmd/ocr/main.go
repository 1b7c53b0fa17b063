// Command ocr sends images to the OCR model server from the command line
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"deepseek-ocr-api/internal/handlers/ocr"
	"deepseek-ocr-api/internal/images"
	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultPrompt = "Extract all text from this image."

type options struct {
	endpoint   string
	model      string
	prompt     string
	system     string
	output     string
	asJSON     bool
	batch      bool
	check      bool
	structured bool
	verbose    bool
	images     []string
}

type batchResult struct {
	ImagePath string  `json:"image_path"`
	Success   bool    `json:"success"`
	Text      *string `json:"text"`
	Error     *string `json:"error"`
}

func defaultEndpoint() string {
	return shared.GetEnv("DEEPSEEK_API_ENDPOINT", shared.GetEnv("DEEPSEEK_OCR_ENDPOINT", "http://localhost:8000"))
}

// structure turns model output into an object: the output itself when it is
// a JSON object, otherwise {"text": output}
func structure(content string) any {
	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(content), &parsed); err == nil {
			return parsed
		}
	}
	return map[string]string{"text": content}
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ocr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.endpoint, "endpoint", defaultEndpoint(), "OCR model server base url")
	fs.StringVar(&opts.model, "model", shared.GetEnv("DEEPSEEK_MODEL", shared.DefaultDeepSeekModel), "Model id")
	fs.StringVar(&opts.prompt, "prompt", defaultPrompt, "Extraction prompt")
	fs.StringVar(&opts.system, "system", "", "Optional system prompt")
	fs.StringVar(&opts.output, "output", "", "Write output to this file instead of stdout")
	fs.BoolVar(&opts.asJSON, "json", false, "Output results as JSON")
	fs.BoolVar(&opts.batch, "batch", false, "One request per image with a summary")
	fs.BoolVar(&opts.check, "check", false, "Check model server health and exit")
	fs.BoolVar(&opts.structured, "structured", false, "Parse the result as JSON when it looks like an object")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ocr [flags] image...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.images = fs.Args()
	if !opts.check && len(opts.images) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("at least one image is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	log := zap.NewNop().Sugar()
	if opts.verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			log = logger.Sugar()
		}
	}
	client := upstream.NewClient(opts.endpoint, log)
	om := ocr.NewOCRManager(client, nil, nil, log, ocr.Config{Model: opts.model})

	if opts.check {
		return check(ctx, om, stdout, stderr)
	}

	encoded, err := images.EncodeFiles(ctx, opts.images)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var out string
	if opts.batch {
		fmt.Fprintf(stderr, "Processing %d images...\n", len(opts.images))
		results := make([]batchResult, len(encoded))
		for i, image := range encoded {
			results[i] = relayOne(ctx, om, opts, opts.images[i], []string{image})
		}
		out, err = formatBatch(results, opts.asJSON)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if !opts.asJSON {
			successful := 0
			for _, r := range results {
				if r.Success {
					successful++
				}
			}
			defer fmt.Fprintf(stderr, "\nProcessed %d/%d images successfully\n", successful, len(results))
		}
	} else {
		fmt.Fprintf(stderr, "Processing %s...\n", strings.Join(opts.images, ", "))
		res, rerr := om.Relay(ocr.OCRInput{
			Ctx: ctx,
			Req: &shared.OCRRequest{SystemPrompt: opts.system, UserPrompt: opts.prompt, Images: encoded},
			Log: log,
		})
		if rerr != nil {
			fmt.Fprintf(stderr, "Error: %s\n", rerr.Message())
			return 1
		}
		var result any = res.Result
		if opts.structured {
			result = structure(res.Result)
		}
		out = res.Result
		switch {
		case opts.asJSON:
			data, err := json.MarshalIndent(map[string]any{"images": opts.images, "result": result}, "", "  ")
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			out = string(data)
		case opts.structured:
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			out = string(data)
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stderr, "Output saved to %s\n", opts.output)
		return 0
	}
	fmt.Fprintln(stdout, out)
	return 0
}

func relayOne(ctx context.Context, om *ocr.OCRManager, opts *options, path string, image []string) batchResult {
	res, rerr := om.Relay(ocr.OCRInput{
		Ctx: ctx,
		Req: &shared.OCRRequest{SystemPrompt: opts.system, UserPrompt: opts.prompt, Images: image},
	})
	if rerr != nil {
		msg := rerr.Message()
		return batchResult{ImagePath: path, Error: &msg}
	}
	text := res.Result
	return batchResult{ImagePath: path, Success: true, Text: &text}
}

func formatBatch(results []batchResult, asJSON bool) (string, error) {
	if asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		return string(data), err
	}
	var b strings.Builder
	for _, r := range results {
		status := "✓"
		if !r.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "\n%s %s\n", status, r.ImagePath)
		if r.Success {
			fmt.Fprintf(&b, "%s\n", *r.Text)
		} else {
			fmt.Fprintf(&b, "Error: %s\n", *r.Error)
		}
		b.WriteString(strings.Repeat("-", 80) + "\n")
	}
	return b.String(), nil
}

func check(ctx context.Context, om *ocr.OCRManager, stdout, stderr io.Writer) int {
	status := om.Health(ctx)
	if !status.Healthy {
		fmt.Fprintf(stderr, "✗ API is not responding at %s\n", status.Endpoint)
		return 1
	}
	fmt.Fprintf(stdout, "✓ API is healthy at %s\n", status.Endpoint)
	models, err := om.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "✗ Failed to list models: %v\n", err)
		return 1
	}
	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ids = append(ids, m.ID)
	}
	fmt.Fprintf(stdout, "✓ Available models: %s\n", strings.Join(ids, ", "))
	return 0
}

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
