package index

import (
	"container/heap"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const defaultBlockSize = 1000

// Config controls one index build.
type Config struct {
	// BlockSize is the number of documents per block. Defaults to 1000.
	BlockSize int

	// Workers is the number of goroutines sorting and writing block
	// indexes. Parsing stays on a single goroutine so that term and doc
	// ids are assigned in one logical sequence and repeated builds over
	// an unchanged corpus produce byte-identical output. Defaults to
	// GOMAXPROCS.
	Workers int

	// Codec selects the postings encoding: fixed32, varint or roaring.
	// Defaults to varint. The choice is recorded in the .dict header.
	Codec string

	Logger *slog.Logger
}

// BuildContext carries the two identifier maps shared by every component
// of one build. It is passed explicitly; there is no package-level state.
type BuildContext struct {
	Terms *IdentifierMap
	Docs  *IdentifierMap
}

func NewBuildContext() *BuildContext {
	return &BuildContext{
		Terms: NewIdentifierMap(),
		Docs:  NewIdentifierMap(),
	}
}

// IndexFilePair names a finalized .dict/.postings pair by its shared
// basename.
type IndexFilePair struct {
	Base string
}

func (p IndexFilePair) DictPath() string {
	return p.Base + ".dict"
}

func (p IndexFilePair) PostingsPath() string {
	return p.Base + ".postings"
}

// Stats summarizes a completed build.
type Stats struct {
	Documents int // documents listed in the corpus
	Skipped   int // documents skipped as unreadable
	Terms     int
	Postings  int // postings in the final index
	Blocks    int
}

type BuildResult struct {
	Pair  IndexFilePair
	Stats Stats
}

// Builder constructs one inverted index pair from a corpus directory
// using block sort-based indexing: parse and sort the corpus in bounded
// blocks, write one index pair per block, then merge the block pairs into
// the final one.
type Builder struct {
	config Config
	codec  PostingsCodec
	log    *slog.Logger
}

func NewBuilder(config Config) (*Builder, error) {
	if config.BlockSize <= 0 {
		config.BlockSize = defaultBlockSize
	}

	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}

	if config.Codec == "" {
		config.Codec = "varint"
	}

	codec, err := CodecByName(config.Codec)
	if err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Builder{
		config: config,
		codec:  codec,
		log:    log.With("component", "builder"),
	}, nil
}

// Build indexes every regular file under corpusDir and commits the result
// to outBase+".dict" and outBase+".postings", replacing any existing pair
// there. The build is all-or-nothing: on error or cancellation all
// block-scoped and in-progress output is discarded and nothing at outBase
// is touched.
func (b *Builder) Build(ctx context.Context, corpusDir, outBase string) (*BuildResult, error) {
	names, err := listDocuments(corpusDir)
	if err != nil {
		return nil, err
	}

	blocks := partition(names, b.config.BlockSize)

	outDir := filepath.Dir(outBase)
	if err := os.MkdirAll(outDir, 0700); err != nil {
		return nil, err
	}

	staging := filepath.Join(outDir, fmt.Sprintf(".build-%08x", rand.Uint32()))
	if err := os.Mkdir(staging, 0700); err != nil {
		return nil, err
	}

	// Everything, block pairs and the in-progress final pair included,
	// lives under the staging directory until the commit renames, so every
	// exit path below leaves no partial output behind.
	defer os.RemoveAll(staging)

	buildContext := NewBuildContext()
	stats := Stats{Documents: len(names), Blocks: len(blocks)}
	finalBase := filepath.Join(staging, "final")

	b.log.Info("build started",
		"corpus", corpusDir,
		"documents", len(names),
		"blocks", len(blocks),
		"codec", b.codec.Name())

	if len(blocks) <= 1 {
		// A corpus that fits in a single block needs no merge: the block
		// is written directly as the final pair.
		if err := b.buildSingleBlock(ctx, corpusDir, blocks, buildContext, finalBase, &stats); err != nil {
			return nil, err
		}
	} else {
		blockBases, err := b.buildBlocks(ctx, corpusDir, blocks, buildContext, staging, &stats)
		if err != nil {
			return nil, err
		}

		if err := b.mergeBlocks(ctx, blockBases, buildContext, finalBase, &stats); err != nil {
			return nil, err
		}
	}

	if err := os.Rename(finalBase+".postings", outBase+".postings"); err != nil {
		return nil, err
	}

	if err := os.Rename(finalBase+".dict", outBase+".dict"); err != nil {
		_ = os.Remove(outBase + ".postings")
		return nil, err
	}

	stats.Terms = buildContext.Terms.Len()

	b.log.Info("build finished",
		"terms", stats.Terms,
		"postings", stats.Postings,
		"skipped", stats.Skipped)

	return &BuildResult{
		Pair:  IndexFilePair{Base: outBase},
		Stats: stats,
	}, nil
}

func (b *Builder) buildSingleBlock(ctx context.Context, corpusDir string, blocks []Block, buildContext *BuildContext, finalBase string, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	writer, err := NewPostingsWriter(finalBase, b.codec, buildContext.Terms, buildContext.Docs)
	if err != nil {
		return err
	}

	defer func() { _ = writer.Abort() }()

	var pairs []Pair

	if len(blocks) == 1 {
		pairs = b.parseBlock(corpusDir, blocks[0], buildContext, stats)
	}

	if err := appendSorted(writer, pairs); err != nil {
		return err
	}

	if err := writer.Finalize(); err != nil {
		return err
	}

	stats.Postings = countPostings(writer.Entries())

	return nil
}

// buildBlocks runs the per-block parse-sort-write phase. Parsing is
// sequential in block order, the single-writer side of the id-assignment
// discipline; sorting and writing of completed blocks fan out to workers
// over a job channel and are joined before the merge.
func (b *Builder) buildBlocks(ctx context.Context, corpusDir string, blocks []Block, buildContext *BuildContext, staging string, stats *Stats) ([]string, error) {
	type blockJob struct {
		base  string
		pairs []Pair
	}

	group, groupCtx := errgroup.WithContext(ctx)
	jobs := make(chan blockJob)

	for i := 0; i < b.config.Workers; i++ {
		group.Go(func() error {
			for job := range jobs {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				if err := writeBlock(job.base, b.codec, job.pairs); err != nil {
					return err
				}
			}

			return nil
		})
	}

	blockBases := make([]string, 0, len(blocks))

	group.Go(func() error {
		defer close(jobs)

		for _, block := range blocks {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			pairs := b.parseBlock(corpusDir, block, buildContext, stats)
			base := filepath.Join(staging, fmt.Sprintf("block_%05d", block.ID))
			blockBases = append(blockBases, base)

			select {
			case jobs <- blockJob{base: base, pairs: pairs}:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return blockBases, nil
}

func (b *Builder) parseBlock(corpusDir string, block Block, buildContext *BuildContext, stats *Stats) []Pair {
	parser := NewBlockParser(corpusDir, block, buildContext.Terms, buildContext.Docs, NewStandardTokenizer())

	scanner := parser.Pairs()
	pairs := make([]Pair, 0, 1024)

	for scanner.Next() {
		pairs = append(pairs, scanner.Pair())
	}

	for _, parseError := range scanner.Skipped() {
		stats.Skipped++
		b.log.Warn("document skipped", "block", block.ID, "doc", parseError.Doc, "error", parseError.Err)
	}

	b.log.Debug("block parsed", "block", block.ID, "docs", len(block.Docs), "pairs", len(pairs))

	return pairs
}

// mergeBlocks is the k-way merge over the block iterators, keyed on each
// iterator's current term id. When several iterators sit at the same
// minimal term id, every one of them contributes before the term is
// written: same-term postings accumulate across blocks, they are never
// overwritten.
func (b *Builder) mergeBlocks(ctx context.Context, blockBases []string, buildContext *BuildContext, finalBase string, stats *Stats) error {
	writer, err := NewPostingsWriter(finalBase, b.codec, buildContext.Terms, buildContext.Docs)
	if err != nil {
		return err
	}

	// Abort is a no-op once the writer is finalized; on every error exit
	// it closes the file and drops the partial output.
	defer func() { _ = writer.Abort() }()

	iterators := make([]*PostingsIterator, 0, len(blockBases))

	defer func() {
		for _, iterator := range iterators {
			_ = iterator.Close()
		}
	}()

	pending := &iteratorHeap{items: make([]*PostingsIterator, 0, len(blockBases))}

	for _, base := range blockBases {
		iterator, err := OpenPostingsIterator(base, b.codec)
		if err != nil {
			return err
		}

		iterators = append(iterators, iterator)

		if iterator.Next() {
			pending.items = append(pending.items, iterator)
		} else if err := iterator.Err(); err != nil {
			return err
		}
	}

	heap.Init(pending)

	b.log.Debug("merge started", "blocks", len(blockBases))

	contributors := make([]*PostingsIterator, 0, len(blockBases))
	merged := make([]uint32, 0, 1024)
	lastTermID := int64(-1)

	for pending.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		contributors = contributors[:0]
		contributors = append(contributors, heap.Pop(pending).(*PostingsIterator))
		termID := contributors[0].TermID()

		for pending.Len() > 0 && pending.items[0].TermID() == termID {
			contributors = append(contributors, heap.Pop(pending).(*PostingsIterator))
		}

		if int64(termID) <= lastTermID {
			return fmt.Errorf("%w: term %d yielded after term %d was merged", ErrMergeConsistency, termID, lastTermID)
		}

		merged = merged[:0]
		for _, contributor := range contributors {
			merged = append(merged, contributor.Postings()...)
		}

		slices.Sort(merged)
		merged = slices.Compact(merged)

		if err := writer.Append(termID, merged); err != nil {
			return err
		}

		stats.Postings += len(merged)
		lastTermID = int64(termID)

		for _, contributor := range contributors {
			if contributor.Next() {
				heap.Push(pending, contributor)
			} else if err := contributor.Err(); err != nil {
				return err
			}
		}
	}

	return writer.Finalize()
}

// appendSorted sorts pairs by (term id, doc id), groups them into
// deduplicated postings lists and appends each to writer.
func appendSorted(writer *PostingsWriter, pairs []Pair) error {
	slices.SortFunc(pairs, func(a, b Pair) int {
		if a.TermID != b.TermID {
			if a.TermID < b.TermID {
				return -1
			}
			return 1
		}

		if a.DocID != b.DocID {
			if a.DocID < b.DocID {
				return -1
			}
			return 1
		}

		return 0
	})

	docIDs := make([]uint32, 0, 128)

	for start := 0; start < len(pairs); {
		termID := pairs[start].TermID
		end := start

		docIDs = docIDs[:0]

		for ; end < len(pairs) && pairs[end].TermID == termID; end++ {
			docID := pairs[end].DocID
			if len(docIDs) == 0 || docIDs[len(docIDs)-1] != docID {
				docIDs = append(docIDs, docID)
			}
		}

		if err := writer.Append(termID, docIDs); err != nil {
			return err
		}

		start = end
	}

	return nil
}

func writeBlock(base string, codec PostingsCodec, pairs []Pair) error {
	writer, err := NewPostingsWriter(base, codec, nil, nil)
	if err != nil {
		return err
	}

	defer func() { _ = writer.Abort() }()

	if err := appendSorted(writer, pairs); err != nil {
		return err
	}

	return writer.Finalize()
}

// listDocuments returns the names of every regular file under dir,
// relative to dir and sorted, so that doc-id assignment depends only on
// the corpus contents.
func listDocuments(dir string) ([]string, error) {
	names := make([]string, 0, 1024)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Anything that is not a directory counts as a document; entries
		// that turn out to be unreadable are skipped by the parser, not
		// silently dropped from the listing.
		if entry.IsDir() {
			return nil
		}

		name, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		names = append(names, filepath.ToSlash(name))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)

	return names, nil
}

func partition(names []string, blockSize int) []Block {
	blocks := make([]Block, 0, (len(names)+blockSize-1)/blockSize)

	for start := 0; start < len(names); start += blockSize {
		end := start + blockSize
		if end > len(names) {
			end = len(names)
		}

		blocks = append(blocks, Block{ID: len(blocks), Docs: names[start:end]})
	}

	return blocks
}

func countPostings(entries []DictionaryEntry) int {
	count := 0
	for _, entry := range entries {
		count += int(entry.Count)
	}

	return count
}
