// Command chupy compresses, decompresses, encrypts and decrypts files
// and directory trees through the container formats in chupy/pkg/core.
package main

import (
	"fmt"
	"os"

	"chupy/lib"
	"chupy/pkg/core"
	"chupy/pkg/progress"

	e "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "chupy"
	app.Usage = "compress, decompress, encrypt and decrypt files and directories"
	app.Version = "1.0"
	app.HideHelp = false

	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "c", Usage: "compress"},
		cli.BoolFlag{Name: "d", Usage: "decompress"},
		cli.BoolFlag{Name: "e", Usage: "encrypt"},
		cli.BoolFlag{Name: "u", Usage: "decrypt"},
		cli.BoolFlag{Name: "ce", Usage: "compress + encrypt"},
		cli.BoolFlag{Name: "ud", Usage: "decrypt + decompress"},
		cli.StringFlag{Name: "i", Usage: "input path"},
		cli.StringFlag{Name: "o", Usage: "output path"},
		cli.StringFlag{Name: "comp-alg", Usage: "compression algorithm (deflate)"},
		cli.StringFlag{Name: "enc-alg", Usage: "encryption algorithm (chacha20)"},
		cli.StringFlag{Name: "k", Usage: "encryption/decryption password"},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type params struct {
	compress, decompress, encrypt, decrypt, compressEncrypt, decryptDecompress bool
	input, output, compAlg, encAlg, key                                       string
}

func parseParams(ctx *cli.Context) params {
	return params{
		compress:          ctx.Bool("c"),
		decompress:        ctx.Bool("d"),
		encrypt:           ctx.Bool("e"),
		decrypt:           ctx.Bool("u"),
		compressEncrypt:   ctx.Bool("ce"),
		decryptDecompress: ctx.Bool("ud"),
		input:             ctx.String("i"),
		output:            ctx.String("o"),
		compAlg:           ctx.String("comp-alg"),
		encAlg:            ctx.String("enc-alg"),
		key:               ctx.String("k"),
	}
}

// validate enforces the operation matrix: exactly one operation selected,
// input and output always present, the algorithm selectors and password
// required whenever their stage is involved.
func (p params) validate() error {
	anyOp := p.compress || p.decompress || p.encrypt || p.decrypt || p.compressEncrypt || p.decryptDecompress
	if !anyOp {
		return invalidArgs("you must specify an operation (-c, -d, -e, -u, -ce, -ud)")
	}
	if p.compress && p.decompress {
		return invalidArgs("cannot use -c and -d together")
	}
	if p.encrypt && p.decrypt {
		return invalidArgs("cannot use -e and -u together")
	}
	if (p.compress || p.decompress) && p.compressEncrypt {
		return invalidArgs("cannot use -c or -d together with -ce")
	}
	if (p.encrypt || p.decrypt) && p.decryptDecompress {
		return invalidArgs("cannot use -e or -u together with -ud")
	}
	if p.compressEncrypt && p.decryptDecompress {
		return invalidArgs("cannot use -ce and -ud together")
	}
	selected := 0
	for _, op := range []bool{p.compress, p.decompress, p.encrypt, p.decrypt, p.compressEncrypt, p.decryptDecompress} {
		if op {
			selected++
		}
	}
	if selected > 1 {
		return invalidArgs("you must specify exactly one operation")
	}
	if p.input == "" {
		return invalidArgs("you must specify an input path with -i")
	}
	if p.output == "" {
		return invalidArgs("you must specify an output path with -o")
	}

	needsCompression := p.compress || p.decompress || p.compressEncrypt || p.decryptDecompress
	if needsCompression && p.compAlg == "" {
		return invalidArgs("you must specify a compression algorithm with --comp-alg")
	}
	if needsCompression && p.compAlg != "deflate" {
		return cli.NewExitError(e.Wrapf(core.ErrUnsupportedAlgorithm, "compression algorithm %s", p.compAlg).Error(), 1)
	}

	needsEncryption := p.encrypt || p.decrypt || p.compressEncrypt || p.decryptDecompress
	if needsEncryption && p.encAlg == "" {
		return invalidArgs("you must specify an encryption algorithm with --enc-alg")
	}
	if needsEncryption && p.encAlg != "chacha20" {
		return cli.NewExitError(e.Wrapf(core.ErrUnsupportedAlgorithm, "encryption algorithm %s", p.encAlg).Error(), 1)
	}
	if needsEncryption && p.key == "" {
		return invalidArgs("you must specify a password with -k")
	}
	return nil
}

func invalidArgs(msg string) error {
	return cli.NewExitError(e.Wrap(core.ErrInvalidArgs, msg).Error(), 1)
}

func run(ctx *cli.Context) error {
	p := parseParams(ctx)
	if err := p.validate(); err != nil {
		return err
	}

	info, err := os.Stat(p.input)
	var size uint64
	if err == nil && !info.IsDir() {
		size = uint64(info.Size())
	}
	progress.Init(size)
	defer progress.Stop()

	log.WithFields(log.Fields{"input": p.input, "output": p.output}).Info("starting operation")

	var opErr error
	switch {
	case p.compress:
		opErr = lib.Compress(p.input, p.output)
	case p.decompress:
		opErr = lib.Decompress(p.input, p.output)
	case p.encrypt:
		opErr = lib.Encrypt(p.input, p.output, p.key)
	case p.decrypt:
		opErr = lib.Decrypt(p.input, p.output, p.key)
	case p.compressEncrypt:
		opErr = lib.CompressThenEncrypt(p.input, p.output, p.key)
	case p.decryptDecompress:
		opErr = lib.DecryptThenDecompress(p.input, p.output, p.key)
	}
	if opErr == nil {
		progress.AddBytes(size)
	}
	return opErr
}
