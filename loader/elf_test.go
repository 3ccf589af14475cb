package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fivestage/loader"
)

func TestLoader(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loader Suite")
}

var _ = Describe("LoadHexImage", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(os.TempDir(), "fivestage-loader-test.hex")
		Expect(os.WriteFile(path, []byte("# a comment\n00000013\n00000013\n\n00000073\n"), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		_ = os.Remove(path)
	})

	It("loads a flat hex image as one executable segment", func() {
		prog, err := loader.LoadHexImage(path, 0x1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint64(0x1000)))
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].Data).To(HaveLen(12))
	})

	It("errors on malformed hex", func() {
		Expect(os.WriteFile(path, []byte("not-hex\n"), 0o644)).To(Succeed())
		_, err := loader.LoadHexImage(path, 0x1000)
		Expect(err).To(HaveOccurred())
	})
})
