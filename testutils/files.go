package testutils

import (
	"bytes"
	"image/color"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

type UploadFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody encodes form fields and files, returning the body and its
// Content-Type header.
func MultipartBody(t *testing.T, fields map[string][]string, files ...UploadFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(name, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

// FileHeaders parses files back into the headers a handler would see.
func FileHeaders(t *testing.T, files ...UploadFile) map[string][]*multipart.FileHeader {
	t.Helper()

	body, contentType := MultipartBody(t, nil, files...)
	req, err := http.NewRequest(http.MethodPost, "/", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File
}

func PNGImage(t *testing.T, width, height int) []byte {
	t.Helper()
	return encodeImage(t, width, height, imaging.PNG)
}

func JPEGImage(t *testing.T, width, height int) []byte {
	t.Helper()
	return encodeImage(t, width, height, imaging.JPEG)
}

func encodeImage(t *testing.T, width, height int, format imaging.Format) []byte {
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

// PDFDocument is the smallest content that sniffs as application/pdf.
var PDFDocument = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
