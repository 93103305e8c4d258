// Package cascade loads the pretrained Haar cascade classifiers used for
// face and eye detection.
package cascade

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

var (
	// ErrMissingModelFile is returned when a cascade file does not exist.
	ErrMissingModelFile = errors.New("missing model file")
	// ErrModelLoad is returned when a cascade file exists but OpenCV cannot load it.
	ErrModelLoad = errors.New("failed to load model")
)

// Default cascade locations, relative to the working directory.
var (
	DefaultFacePath = filepath.Join("haar", "haarcascade_frontalface_default.xml")
	DefaultEyePath  = filepath.Join("haar", "haarcascade_eye.xml")
)

// Pair holds the face and eye classifiers. Both are owned by the Pair
// and released by Close.
type Pair struct {
	face *gocv.CascadeClassifier
	eye  *gocv.CascadeClassifier
}

// Load checks that both files exist and then loads them.
// Existence is checked for both paths before any classifier is created.
func Load(facePath, eyePath string) (*Pair, error) {
	for _, p := range []string{facePath, eyePath} {
		if err := checkFile(p); err != nil {
			return nil, err
		}
	}

	face, err := loadClassifier(facePath, "face")
	if err != nil {
		return nil, err
	}
	eye, err := loadClassifier(eyePath, "eye")
	if err != nil {
		face.Close()
		return nil, err
	}

	return &Pair{face: face, eye: eye}, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingModelFile, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrMissingModelFile, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingModelFile, path)
	}
	return nil
}

func loadClassifier(path, kind string) (*gocv.CascadeClassifier, error) {
	c := gocv.NewCascadeClassifier()
	// Load returns false for unparsable files, leaving the classifier empty
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("%w: %s cascade %s", ErrModelLoad, kind, path)
	}
	return &c, nil
}

// Face returns the face classifier.
func (p *Pair) Face() *gocv.CascadeClassifier { return p.face }

// Eye returns the eye classifier.
func (p *Pair) Eye() *gocv.CascadeClassifier { return p.eye }

// Close releases both classifiers. It is safe to call more than once.
func (p *Pair) Close() error {
	var errs []error
	if p.face != nil {
		errs = append(errs, p.face.Close())
		p.face = nil
	}
	if p.eye != nil {
		errs = append(errs, p.eye.Close())
		p.eye = nil
	}
	return errors.Join(errs...)
}
