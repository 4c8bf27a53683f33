package epub

import (
	"encoding/xml"
	"fmt"
)

const containerPath = "META-INF/container.xml"

type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// parseContainer returns the archive path of the package document.
func parseContainer(a *archive) (string, error) {
	if !a.has(containerPath) {
		return "", ErrNoContainer
	}
	data, err := a.read(containerPath)
	if err != nil {
		return "", err
	}

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	// Prefer the rootfile declared as an OPF document
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "") {
			return rf.FullPath, nil
		}
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", fmt.Errorf("%w: no rootfile", ErrInvalidContainer)
}
