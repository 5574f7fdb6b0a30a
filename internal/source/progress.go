package source

import (
	"os"
	"path/filepath"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressFile reads an input file through a byte progress bar on stderr
type progressFile struct {
	r    *pb.Reader
	file *os.File
	bar  *pb.ProgressBar
}

// withProgress starts a bar sized to f, labelled with its base name.
// Closing the result finishes the bar and closes f.
func withProgress(f *os.File) (*progressFile, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.New64(fi.Size()).SetUnits(pb.U_BYTES_DEC).Prefix(filepath.Base(f.Name()) + " ")
	bar.ShowSpeed = true
	bar.Output = os.Stderr
	bar.Start()

	return &progressFile{r: bar.NewProxyReader(f), file: f, bar: bar}, nil
}

func (p *progressFile) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *progressFile) Close() error {
	p.bar.Finish()
	return p.file.Close()
}
