package index

import (
	"os"
	"path/filepath"
)

// Block is one bounded slice of the corpus, processed as an independent
// indexing unit before the merge.
type Block struct {
	ID   int
	Docs []string // document names, relative to the corpus directory
}

// Pair is one (term id, doc id) occurrence emitted by the block parser.
type Pair struct {
	TermID uint32
	DocID  uint32
}

// BlockParser tokenizes one block's documents into a stream of pairs,
// registering new terms and document names in the shared identifier maps
// as it encounters them. Ids are therefore assigned in parse order, which
// is what makes repeated builds over an unchanged corpus reproducible.
type BlockParser struct {
	corpusDir string
	block     Block
	terms     *IdentifierMap
	docs      *IdentifierMap
	tokenizer Tokenizer
}

func NewBlockParser(corpusDir string, block Block, terms, docs *IdentifierMap, tokenizer Tokenizer) *BlockParser {
	return &BlockParser{
		corpusDir: corpusDir,
		block:     block,
		terms:     terms,
		docs:      docs,
		tokenizer: tokenizer,
	}
}

// Pairs starts a scan over the block. Each call re-reads the block's
// files; a scanner is not a replay of held state.
func (p *BlockParser) Pairs() *PairScanner {
	return &PairScanner{parser: p}
}

// PairScanner is the pull iterator returned by Pairs.
type PairScanner struct {
	parser   *BlockParser
	docIndex int
	docID    uint32
	active   bool
	pair     Pair
	skipped  []*ParseError
}

func (s *PairScanner) Next() bool {
	for {
		if s.active {
			token, ok := s.parser.tokenizer.NextToken()
			if ok {
				s.pair = Pair{
					TermID: s.parser.terms.IDOf(string(token)),
					DocID:  s.docID,
				}
				return true
			}

			s.active = false
		}

		if s.docIndex >= len(s.parser.block.Docs) {
			return false
		}

		name := s.parser.block.Docs[s.docIndex]
		s.docIndex++

		// The name is registered before the read so that doc ids depend
		// only on the corpus listing, not on which documents happen to be
		// readable today.
		s.docID = s.parser.docs.IDOf(name)

		data, err := os.ReadFile(filepath.Join(s.parser.corpusDir, name))
		if err != nil {
			s.skipped = append(s.skipped, &ParseError{Doc: name, Err: err})
			continue
		}

		s.parser.tokenizer.Reset(data)
		s.active = true
	}
}

func (s *PairScanner) Pair() Pair {
	return s.pair
}

// Skipped returns the documents that could not be read, the only failure
// class recovered locally. Complete after the scan is exhausted.
func (s *PairScanner) Skipped() []*ParseError {
	return s.skipped
}
