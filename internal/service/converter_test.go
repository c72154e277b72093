package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"converterapi/internal/docx"
	"converterapi/internal/docx/docxtest"
	"converterapi/internal/pptx"
	"converterapi/internal/pptx/pptxtest"
	"converterapi/internal/storage"
	storeMocks "converterapi/internal/storage/mocks"
)

func TestConverterService_Convert(t *testing.T) {
	ctx := context.Background()
	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		filename   string
		reader     func() io.Reader
		opts       ConvertOptions
		setupMocks func(mStore *storeMocks.MockStorage, captured *[]byte)
		wantErr    error
		wantErrMsg string
		wantTitles []string
	}{
		{
			name:     "happy path with details slide",
			filename: "report.docx",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build("Intro", "Body", "Outro")) },
			opts:     ConvertOptions{DetailsSlide: true},
			setupMocks: func(mStore *storeMocks.MockStorage, captured *[]byte) {
				mStore.On("Put", mock.Anything, "report.pptx", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
					return o.Size > 0 && o.ContentType == pptx.ContentType
				})).Return(func(_ context.Context, key string, r io.Reader, o storage.PutObjectOptions) storage.ObjectInfo {
					*captured, _ = io.ReadAll(r)
					return storage.ObjectInfo{Key: key, Location: "/ppt/" + key, Size: o.Size, LastModified: modified}
				}, nil)
			},
			wantTitles: []string{"Intro", "Body", "Outro", DetailsTitle},
		},
		{
			name:     "without details slide",
			filename: "notes.docx",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build("only", "")) },
			setupMocks: func(mStore *storeMocks.MockStorage, captured *[]byte) {
				mStore.On("Put", mock.Anything, "notes.pptx", mock.Anything, mock.Anything).
					Return(func(_ context.Context, key string, r io.Reader, o storage.PutObjectOptions) storage.ObjectInfo {
						*captured, _ = io.ReadAll(r)
						return storage.ObjectInfo{Key: key, Size: o.Size}
					}, nil)
			},
			wantTitles: []string{"only", ""},
		},
		{
			name:     "nil reader",
			filename: "report.docx",
			reader:   func() io.Reader { return nil },
			wantErr:  ErrReaderNil,
		},
		{
			name:     "wrong extension",
			filename: "report.pdf",
			reader:   func() io.Reader { return strings.NewReader("x") },
			wantErr:  ErrInvalidFileType,
		},
		{
			name:     "upper-case extension",
			filename: "Report.DOCX",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build("a")) },
			wantErr:  ErrInvalidFileType,
		},
		{
			name:     "name reduces to dot",
			filename: "..docx",
			reader:   func() io.Reader { return strings.NewReader("x") },
			wantErr:  ErrInvalidName,
		},
		{
			name:     "not a zip",
			filename: "report.docx",
			reader:   func() io.Reader { return strings.NewReader("plain text") },
			wantErr:  docx.ErrNotZip,
		},
		{
			name:     "empty document",
			filename: "empty.docx",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build()) },
			wantErr:  ErrEmptyDocument,
		},
		{
			name:     "document over limit",
			filename: "big.docx",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build("a", "b")) },
			opts:     ConvertOptions{MaxDocumentBytes: 16},
			wantErr:  docx.ErrTooLarge,
		},
		{
			name:     "storage error",
			filename: "report.docx",
			reader:   func() io.Reader { return bytes.NewReader(docxtest.Build("a")) },
			setupMocks: func(mStore *storeMocks.MockStorage, _ *[]byte) {
				mStore.On("Put", mock.Anything, "report.pptx", mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("disk full"))
			},
			wantErrMsg: "save presentation: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			var captured []byte
			if tt.setupMocks != nil {
				tt.setupMocks(mStore, &captured)
			}
			svc := NewConverterService(mStore, tt.opts, zerolog.Nop())

			art, err := svc.Convert(ctx, tt.reader(), tt.filename)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, art)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
				assert.Nil(t, art)
			default:
				require.NoError(t, err)
				require.NotNil(t, art)
				assert.Equal(t, strings.TrimSuffix(tt.filename, tt.filename[len(tt.filename)-5:]), art.Name)
				assert.Equal(t, art.Name+".pptx", art.Filename)
				assert.Equal(t, len(tt.wantTitles), art.SlideCount)
				assert.Equal(t, int64(len(captured)), art.Size)
				assert.Equal(t, pptx.ContentType, art.ContentType)

				titles, err := pptxtest.Titles(captured)
				require.NoError(t, err)
				assert.Equal(t, tt.wantTitles, titles)
			}
			mStore.AssertExpectations(t)
		})
	}
}

func TestConverterService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		rc := io.NopCloser(strings.NewReader("pptx-bytes"))
		mStore.On("Get", mock.Anything, "report.pptx").
			Return(rc, storage.ObjectInfo{Key: "report.pptx", Location: "/ppt/report.pptx", Size: 10}, nil)

		svc := NewConverterService(mStore, ConvertOptions{}, zerolog.Nop())
		got, art, err := svc.Open(ctx, "report")
		require.NoError(t, err)
		defer got.Close()

		assert.Equal(t, "report", art.Name)
		assert.Equal(t, "report.pptx", art.Filename)
		assert.Equal(t, int64(10), art.Size)
		assert.Equal(t, pptx.ContentType, art.ContentType)
		body, _ := io.ReadAll(got)
		assert.Equal(t, "pptx-bytes", string(body))
	})

	t.Run("not found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Get", mock.Anything, "missing.pptx").
			Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		svc := NewConverterService(mStore, ConvertOptions{}, zerolog.Nop())
		_, _, err := svc.Open(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Get", mock.Anything, "x.pptx").
			Return(nil, storage.ObjectInfo{}, errors.New("io error"))

		svc := NewConverterService(mStore, ConvertOptions{}, zerolog.Nop())
		_, _, err := svc.Open(ctx, "x")
		assert.EqualError(t, err, "open artifact: io error")
	})

	for _, name := range []string{"", ".", "..", "../etc/passwd", `a\b`, "a/b"} {
		t.Run("invalid name "+name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			svc := NewConverterService(mStore, ConvertOptions{}, zerolog.Nop())
			_, _, err := svc.Open(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidName)
			mStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}
}

func TestConverterService_Filesystem(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFilesystemWithFs(afero.NewMemMapFs(), "/ppt")
	require.NoError(t, err)
	svc := NewConverterService(store, ConvertOptions{DetailsSlide: true}, zerolog.Nop())

	_, err = svc.Convert(ctx, bytes.NewReader(docxtest.Build("first", "second")), "deck.docx")
	require.NoError(t, err)
	art, err := svc.Convert(ctx, bytes.NewReader(docxtest.Build("replaced")), "deck.docx")
	require.NoError(t, err)
	assert.Equal(t, 2, art.SlideCount)

	rc, opened, err := svc.Open(ctx, "deck")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, opened.Size, int64(len(data)))

	slides, err := pptxtest.Read(data)
	require.NoError(t, err)
	assert.Equal(t, []pptxtest.Slide{
		{Layout: "Title Slide", Title: "replaced"},
		{Layout: "Title and Content", Title: DetailsTitle, Body: "replaced"},
	}, slides)
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "report.docx", want: "report"},
		{in: "Report.docx", want: "Report"},
		{in: "Report.DOCX", wantErr: ErrInvalidFileType},
		{in: "report.Docx", wantErr: ErrInvalidFileType},
		{in: "my.notes.docx", want: "my.notes"},
		{in: "dir/sub/report.docx", want: "report"},
		{in: `C:\Users\me\report.docx`, want: "report"},
		{in: "report.docx.docx", want: "report.docx"},
		{in: "report.doc", wantErr: ErrInvalidFileType},
		{in: "report", wantErr: ErrInvalidFileType},
		{in: "", wantErr: ErrInvalidFileType},
		{in: ".docx", wantErr: ErrInvalidName},
		{in: "...docx", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ArtifactName(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPresentation(t *testing.T) {
	assert.Equal(t, 0, BuildPresentation(nil, true).Len())

	pres := BuildPresentation([]string{"a", "b"}, true)
	slides := pres.Slides()
	require.Len(t, slides, 3)
	assert.Equal(t, pptx.LayoutTitle, slides[0].Layout)
	assert.Equal(t, "b", slides[1].Title)
	assert.Equal(t, pptx.Slide{Layout: pptx.LayoutTitleAndContent, Title: DetailsTitle, Body: "b"}, slides[2])

	assert.Equal(t, 2, BuildPresentation([]string{"a", "b"}, false).Len())
}
