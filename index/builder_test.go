package index_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildIndex(t *testing.T, corpus string, blockSize int, codec string) (*index.BuildResult, string) {
	t.Helper()

	builder, err := index.NewBuilder(index.Config{
		BlockSize: blockSize,
		Codec:     codec,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	outBase := filepath.Join(t.TempDir(), "corpus")

	result, err := builder.Build(context.Background(), corpus, outBase)
	require.NoError(t, err)

	return result, outBase
}

func pairBytes(t *testing.T, base string) (dict, postings []byte) {
	t.Helper()

	dict, err := os.ReadFile(base + ".dict")
	require.NoError(t, err)

	postings, err = os.ReadFile(base + ".postings")
	require.NoError(t, err)

	return dict, postings
}

func TestBuildIsDeterministic(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "the quick brown fox",
		"doc_1": "jumps over the lazy dog",
		"doc_2": "the dog barks",
		"doc_3": "quick quick fox",
		"doc_4": "lazy afternoon",
		"doc_5": "fox and dog",
		"doc_6": "南开 大学 nku",
		"doc_7": "nku news today",
	})

	_, first := buildIndex(t, corpus, 3, "varint")
	_, second := buildIndex(t, corpus, 3, "varint")

	firstDict, firstPostings := pairBytes(t, first)
	secondDict, secondPostings := pairBytes(t, second)

	assert.Equal(t, firstDict, secondDict)
	assert.Equal(t, firstPostings, secondPostings)
}

func TestSingleBlockMatchesMultiBlock(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "alpha beta",
		"doc_1": "beta gamma",
		"doc_2": "gamma alpha",
		"doc_3": "delta",
		"doc_4": "alpha delta",
	})

	// One block skips the merge entirely; the output must still be
	// byte-identical to the merged multi-block build.
	_, single := buildIndex(t, corpus, 100, "varint")
	_, multi := buildIndex(t, corpus, 2, "varint")

	singleDict, singlePostings := pairBytes(t, single)
	multiDict, multiPostings := pairBytes(t, multi)

	assert.Equal(t, singleDict, multiDict)
	assert.Equal(t, singlePostings, multiPostings)
}

// Two blocks contributing postings for the same term must accumulate:
// overwrite-instead-of-accumulate once shipped a partial index here.
func TestMergeAccumulatesSameTermAcrossBlocks(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "shared one",
		"doc_1": "shared two",
		"doc_2": "filler",
		"doc_3": "shared three",
		"doc_4": "filler",
		"doc_5": "shared four",
	})

	// Blocks {doc_0,doc_1,doc_2} and {doc_3,doc_4,doc_5}: block postings
	// for "shared" are [0,1] and [3,5].
	_, base := buildIndex(t, corpus, 3, "varint")

	reader, err := index.OpenInvertedIndexReader(base, nil)
	require.NoError(t, err)
	defer reader.Close()

	postings, err := reader.Lookup("shared")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3, 5}, postings)
}

func TestFiveDocumentTwoBlockScenario(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "nku campus",
		"doc_1": "nku library",
		"doc_2": "weather report",
		"doc_3": "nku admissions",
		"doc_4": "sports results",
	})

	result, base := buildIndex(t, corpus, 3, "varint")
	assert.Equal(t, 5, result.Stats.Documents)
	assert.Equal(t, 2, result.Stats.Blocks)

	reader, err := index.OpenInvertedIndexReader(base, nil)
	require.NoError(t, err)
	defer reader.Close()

	postings, err := reader.Lookup("nku")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3}, postings)

	name, err := reader.DocName(3)
	require.NoError(t, err)
	assert.Equal(t, "doc_3", name)
}

func TestEmptyCorpusProducesValidEmptyIndex(t *testing.T) {
	result, base := buildIndex(t, t.TempDir(), 3, "varint")

	assert.Equal(t, 0, result.Stats.Documents)
	assert.Equal(t, 0, result.Stats.Terms)

	reader, err := index.OpenInvertedIndexReader(base, nil)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, 0, reader.TermCount())
	assert.Equal(t, 0, reader.DocCount())

	_, err = reader.Lookup("anything")
	assert.ErrorIs(t, err, index.ErrUnknownTerm)

	info, err := os.Stat(base + ".postings")
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestBuildSkipsUnreadableDocuments(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "alpha beta",
		"doc_2": "alpha gamma",
	})
	require.NoError(t, os.Symlink("missing", filepath.Join(corpus, "doc_1")))

	result, base := buildIndex(t, corpus, 10, "varint")
	assert.Equal(t, 3, result.Stats.Documents)
	assert.Equal(t, 1, result.Stats.Skipped)

	reader, err := index.OpenInvertedIndexReader(base, nil)
	require.NoError(t, err)
	defer reader.Close()

	postings, err := reader.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, postings)
}

func TestBuildWithEachCodecAgreesOnLookups(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "x y z",
		"doc_1": "y z",
		"doc_2": "z x",
		"doc_3": "x",
	})

	for _, codec := range []string{"fixed32", "varint", "roaring"} {
		t.Run(codec, func(t *testing.T) {
			_, base := buildIndex(t, corpus, 2, codec)

			reader, err := index.OpenInvertedIndexReader(base, nil)
			require.NoError(t, err)
			defer reader.Close()

			assert.Equal(t, codec, reader.Codec().Name())

			postings, err := reader.Lookup("x")
			require.NoError(t, err)
			assert.Equal(t, []uint32{0, 2, 3}, postings)

			postings, err = reader.Lookup("z")
			require.NoError(t, err)
			assert.Equal(t, []uint32{0, 1, 2}, postings)
		})
	}
}

func TestMergedPostingsEqualUnionOfBlocks(t *testing.T) {
	docs := make(map[string]string, 20)
	expected := make(map[string][]uint32)

	words := []string{"red", "green", "blue", "cyan"}

	for i := 0; i < 20; i++ {
		var content []string
		for j, word := range words {
			if i%(j+2) == 0 {
				content = append(content, word)
				expected[word] = append(expected[word], uint32(i))
			}
		}
		docs[fmt.Sprintf("doc_%02d", i)] = strings.Join(content, " ")
	}

	corpus := writeCorpus(t, docs)
	_, base := buildIndex(t, corpus, 4, "varint")

	reader, err := index.OpenInvertedIndexReader(base, nil)
	require.NoError(t, err)
	defer reader.Close()

	for word, want := range expected {
		postings, err := reader.Lookup(word)
		require.NoError(t, err)
		assert.Equal(t, want, postings, "term %q", word)
	}
}

func TestCancelledBuildOfEmptyCorpusLeavesNoOutput(t *testing.T) {
	builder, err := index.NewBuilder(index.Config{Logger: discardLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outBase := filepath.Join(t.TempDir(), "corpus")

	_, err = builder.Build(ctx, t.TempDir(), outBase)
	require.ErrorIs(t, err, context.Canceled)

	assert.NoFileExists(t, outBase+".dict")
	assert.NoFileExists(t, outBase+".postings")
}

func TestCancelledBuildLeavesNoOutput(t *testing.T) {
	corpus := writeCorpus(t, map[string]string{
		"doc_0": "alpha",
		"doc_1": "beta",
		"doc_2": "gamma",
		"doc_3": "delta",
	})

	builder, err := index.NewBuilder(index.Config{
		BlockSize: 1,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outDir := t.TempDir()
	outBase := filepath.Join(outDir, "corpus")

	_, err = builder.Build(ctx, corpus, outBase)
	require.Error(t, err)

	assert.NoFileExists(t, outBase+".dict")
	assert.NoFileExists(t, outBase+".postings")

	// No staging directory survives either.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
