package service

import (
	"io"
	"os"
	"testing"

	"github.com/emrgen/knuth/internal/extract"
	"github.com/emrgen/knuth/internal/tester"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.WarnLevel)
	code := m.Run()

	os.Exit(code)
}

type testServices struct {
	env     *tester.Env
	docs    *DocumentService
	uploads *UploadService
	indexer *IndexService
}

func newTestServices(t *testing.T, pdf extract.Extractor) *testServices {
	env := tester.Setup(t)
	deps := Deps{
		Store: env.Store,
		Blobs: env.Blobs,
		Index: env.Index,
		Queue: env.Queue,
	}

	return &testServices{
		env:     env,
		docs:    NewDocumentService(deps),
		uploads: NewUploadService(deps, pdf),
		indexer: NewIndexService(deps),
	}
}

type fakeExtractor struct {
	fields map[string]string
	err    error
}

func (f fakeExtractor) Extract(io.ReadSeeker) (map[string]string, error) {
	return f.fields, f.err
}
