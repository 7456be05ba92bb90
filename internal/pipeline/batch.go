package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/AnyUserName/covercrop/internal/advisor"
	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/hasher"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/session"
	"github.com/AnyUserName/covercrop/internal/store"
	"github.com/AnyUserName/covercrop/internal/target"
)

// BatchConfig exports many images with one edit state and target.
type BatchConfig struct {
	Config
	FormatID string
	Target   target.CropTarget
	// State is applied to every image; the zero value means neutral.
	State  editstate.CoverCropState
	Export export.Options
	Store  store.Store
	// Directory is the store directory outputs are written under.
	Directory    string
	Workers      int
	SaveSessions bool
}

func (bc BatchConfig) state() editstate.CoverCropState {
	if bc.State == (editstate.CoverCropState{}) {
		return editstate.Neutral()
	}
	return bc.State
}

// ItemResult is the outcome for one input file.
type ItemResult struct {
	File    ScannedFile
	Path    string
	Dims    imagefile.Dims
	Size    int64
	Warning *advisor.SmallImageWarnParams
	Err     error
}

// Report aggregates a batch run.
type Report struct {
	Items       []ItemResult
	Failed      int
	Warned      int
	InputBytes  int64
	OutputBytes int64
}

// Batch processes every image under inputDir in parallel. Individual
// failures are reported per item; Batch itself only fails when nothing
// could be processed.
func Batch(ctx context.Context, inputDir string, bc BatchConfig) (*Report, error) {
	if err := bc.Target.Validate(); err != nil {
		return nil, err
	}
	if bc.Store == nil {
		return nil, fmt.Errorf("batch requires a store")
	}
	workers := bc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	files, err := ScanImages(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", inputDir)
	}
	bc.logf("found %d images, %d workers", len(files), workers)

	results := make([]ItemResult, len(files))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, f := range files {
		wg.Add(1)
		go func(idx int, f ScannedFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = ProcessFile(ctx, f, bc)
		}(i, f)
	}
	wg.Wait()

	rep := &Report{Items: results}
	for _, r := range results {
		rep.InputBytes += r.File.Size
		if r.Err != nil {
			rep.Failed++
			bc.logf("error: %s: %v", r.File.RelPath, r.Err)
			continue
		}
		rep.OutputBytes += r.Size
		if r.Warning != nil {
			rep.Warned++
		}
	}
	if rep.Failed == len(files) {
		return rep, fmt.Errorf("all %d images failed to process", rep.Failed)
	}
	return rep, nil
}

// ProcessFile prepares, exports and stores one file.
func ProcessFile(ctx context.Context, f ScannedFile, bc BatchConfig) ItemResult {
	res := ItemResult{File: f}

	src, err := imagefile.FromPath(f.AbsPath)
	if err != nil {
		res.Err = err
		return res
	}
	prep, err := Prepare(ctx, src, &bc.Target, bc.Config)
	if err != nil {
		res.Err = err
		return res
	}
	res.Warning = prep.Warning

	opts := bc.Export
	if opts.Name == "" {
		opts.Name = path.Base(f.Key)
	}
	if opts.Registry == nil {
		opts.Registry = bc.Registry
	}
	var out export.Result
	err = bc.stage(ctx, "export", func(ctx context.Context) error {
		var err error
		out, err = export.Export(ctx, prep.Working, bc.state(), bc.Target, opts)
		return err
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Dims = out.Dims
	res.Size = out.File.Len()
	bc.Metrics.Export(string(bc.Target.Output), out.State.ColorMode().String(), len(out.File.Data))

	dir := path.Join(bc.Directory, path.Dir(f.Key))
	err = bc.stage(ctx, "write", func(ctx context.Context) error {
		p, err := bc.Store.Write(ctx, out.File.FileName, out.File.Data, store.WriteOptions{MIMEType: out.File.MIMEType, Directory: dir})
		if err != nil {
			return err
		}
		res.Path = p
		if !bc.SaveSessions {
			return nil
		}
		rec := Record(bc.FormatID, bc.Target, out, prep)
		rec.Export.Path = p
		data, err := rec.Marshal()
		if err != nil {
			return err
		}
		_, err = bc.Store.Write(ctx, session.FileName(filepath.Base(f.RelPath)), data, store.WriteOptions{MIMEType: "application/json", Directory: dir})
		return err
	})
	if err != nil {
		res.Err = err
	}
	return res
}

// Record builds the persisted session for an export of a prepared image.
func Record(formatID string, tg target.CropTarget, out export.Result, prep Prepared) *session.Record {
	rec := session.New(formatID, tg, out.State)
	rec.Source = &session.SourceInfo{
		FileName: prep.Original.FileName,
		MIMEType: prep.Original.MIMEType,
		Width:    prep.OriginalDims.Width,
		Height:   prep.OriginalDims.Height,
		Size:     prep.Original.Len(),
		Hash:     hasher.ContentHash(prep.Original.Data, 16),
	}
	rec.Export = &session.ExportInfo{
		MIMEType: out.File.MIMEType,
		Width:    out.Dims.Width,
		Height:   out.Dims.Height,
		Size:     out.File.Len(),
	}
	return rec
}
