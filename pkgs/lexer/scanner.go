package lexer

import (
	"bufio"
	"fmt"
	"os"

	"github.com/ZdAkk/relex/pkgs/errors"
)

// TokenizeFile scans a whole source file line by line, threading each
// line's end state into the next. The file must satisfy the grammar's
// declared extensions and is closed on every exit path.
func (t *Tokenizer) TokenizeFile(path string) ([]ScanResult, error) {
	if !t.grammar.AllowsFile(path) {
		return nil, errors.New(errors.ErrExtensionMismatch,
			fmt.Sprintf("%s does not match the grammar's extensions %v", path, t.grammar.Extensions)).
			WithContext("grammar", t.grammar.File)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrSourceNotFound,
				fmt.Sprintf("source file %s does not exist", path), err)
		}
		return nil, errors.Wrap(errors.ErrSourceRead,
			fmt.Sprintf("cannot open source file %s", path), err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	state := StartState
	var results []ScanResult
	for sc.Scan() {
		res := t.TokenizeLine(sc.Text(), state)
		state = res.EndState
		results = append(results, res)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrSourceRead,
			fmt.Sprintf("reading %s failed", path), err)
	}
	return results, nil
}
