package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"converterapi/internal/docx"
	"converterapi/internal/model"
	"converterapi/internal/pptx"
	"converterapi/internal/storage"
)

var (
	ErrReaderNil       = errors.New("reader is nil")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidName     = errors.New("invalid file name")
	ErrEmptyDocument   = errors.New("document contains no paragraphs")
	ErrNotFound        = errors.New("file not found")
)

// DetailsTitle is the title of the trailing slide that repeats the last paragraph.
const DetailsTitle = "Details"

const tracerName = "converterapi/internal/service"

// ConvertOptions tune the paragraph to slide mapping.
type ConvertOptions struct {
	// DetailsSlide appends a "Title and Content" slide titled DetailsTitle whose body
	// is the text of the last paragraph.
	DetailsSlide bool
	// MaxDocumentBytes bounds how much of an upload is read. Zero means unbounded.
	MaxDocumentBytes int64
}

// ConverterService defines the document conversion use cases.
type ConverterService interface {
	// Convert parses a word-processing document and stores it as a presentation
	// with one title slide per paragraph. The artifact name is derived from
	// originalFilename, so converting a same-named document replaces the previous artifact.
	Convert(ctx context.Context, r io.Reader, originalFilename string) (*model.Artifact, error)

	// Open returns a reader over a previously converted artifact.
	// name is the artifact name without extension. The caller closes the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, *model.Artifact, error)
}

type converterService struct {
	store  storage.Storage
	opts   ConvertOptions
	log    zerolog.Logger
	tracer trace.Tracer
}

// NewConverterService constructs a new ConverterService.
func NewConverterService(store storage.Storage, opts ConvertOptions, log zerolog.Logger) ConverterService {
	return &converterService{
		store:  store,
		opts:   opts,
		log:    log.With().Str("component", "converter").Logger(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *converterService) Convert(ctx context.Context, r io.Reader, originalFilename string) (art *model.Artifact, err error) {
	ctx, span := s.tracer.Start(ctx, "ConverterService.Convert",
		trace.WithAttributes(attribute.String("document.filename", originalFilename)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	if r == nil {
		return nil, ErrReaderNil
	}
	name, err := ArtifactName(originalFilename)
	if err != nil {
		return nil, err
	}

	doc, err := docx.Read(r, s.opts.MaxDocumentBytes)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if len(doc.Paragraphs) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pres := BuildPresentation(doc.Paragraphs, s.opts.DetailsSlide)
	pres.Title = name
	data, err := pres.Bytes()
	if err != nil {
		return nil, fmt.Errorf("render presentation: %w", err)
	}

	info, err := s.store.Put(ctx, name+pptx.Extension, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: pptx.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("save presentation: %w", err)
	}

	span.SetAttributes(
		attribute.Int("document.paragraphs", len(doc.Paragraphs)),
		attribute.Int("presentation.slides", pres.Len()),
	)
	s.log.Info().
		Str("artifact", info.Key).
		Int("paragraphs", len(doc.Paragraphs)).
		Int("slides", pres.Len()).
		Int64("bytes", info.Size).
		Dur("duration", time.Since(start)).
		Msg("conversion completed")

	return &model.Artifact{
		Name:        name,
		Filename:    info.Key,
		Path:        info.Location,
		Size:        info.Size,
		SlideCount:  pres.Len(),
		ContentType: pptx.ContentType,
		ModifiedAt:  info.LastModified,
	}, nil
}

func (s *converterService) Open(ctx context.Context, name string) (io.ReadCloser, *model.Artifact, error) {
	ctx, span := s.tracer.Start(ctx, "ConverterService.Open",
		trace.WithAttributes(attribute.String("artifact.name", name)))
	defer span.End()

	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}
	rc, info, err := s.store.Get(ctx, name+pptx.Extension)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, fmt.Errorf("open artifact: %w", err)
	}
	return rc, &model.Artifact{
		Name:        name,
		Filename:    info.Key,
		Path:        info.Location,
		Size:        info.Size,
		ContentType: pptx.ContentType,
		ModifiedAt:  info.LastModified,
	}, nil
}

// BuildPresentation maps paragraphs to slides in document order: one "Title Slide"
// per paragraph carrying its text as the title, then, when details is set and there
// is at least one paragraph, a DetailsTitle slide whose body is the last paragraph.
func BuildPresentation(paragraphs []string, details bool) *pptx.Presentation {
	pres := pptx.New()
	for _, p := range paragraphs {
		pres.AddTitleSlide(p)
	}
	if details && len(paragraphs) > 0 {
		pres.AddContentSlide(DetailsTitle, paragraphs[len(paragraphs)-1])
	}
	return pres
}

// ArtifactName derives the artifact name from an uploaded file name: the base
// name with its .docx extension removed. The extension match is case-sensitive.
// Any directory part sent by the client is ignored.
func ArtifactName(filename string) (string, error) {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if !strings.HasSuffix(base, docx.Extension) {
		return "", ErrInvalidFileType
	}
	name := strings.TrimSuffix(base, docx.Extension)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateName checks that name can be used as a flat artifact name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return ErrInvalidName
	}
	return nil
}
