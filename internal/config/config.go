package config

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// DefaultBaseDirectoryPath is where dqm4hep-go commands store
	// configuration and runtime state. It defaults to $DQM4HEP_BASE if
	// set, otherwise $HOME/lib/dqm4hep. Commands override this via a
	// -base flag.
	DefaultBaseDirectoryPath string
)

func init() {
	if base := os.Getenv("DQM4HEP_BASE"); base != "" {
		DefaultBaseDirectoryPath = base
	} else {
		DefaultBaseDirectoryPath = os.ExpandEnv("$HOME/lib/dqm4hep")
	}
}

// C is the configuration of a collector daemon or client command.
type C struct {
	// CollectorName is the channel name a Service publishes under and
	// clients discover by (§4.7: "service discovery is by name only").
	CollectorName string

	// TransportBackend names one of the two transport implementations:
	// "binarybus" or "wsbus". cmd/dqmcollectord only logs it; it always
	// serves over binarybus, whatever the value.
	TransportBackend string

	ListenNet  string
	ListenAddr string

	// RunControlName defaults to "Global" when empty, matching the
	// original DQM4HEP run control naming convention (SPEC_FULL.md
	// §C.1).
	RunControlName string

	// RunControlPassword, when non-empty, gates startNewRun/
	// endCurrentRun (§4.8).
	RunControlPassword string

	// ArchiverStorage selects the archiver's container sink: "disk" or
	// "s3". Empty disables archiving.
	ArchiverStorage string
	ArchiveDir      string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// PluginPaths lists the names of plugins, already linked into the
	// binary, that plugin.Manager.LoadAll activates at startup for
	// additional allocator/quality-test registrations; no directory is
	// scanned (§4.2, §5: plugin manager is a process-wide,
	// init-at-load singleton).
	PluginPaths []string

	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string

	// EncryptionKey, if set, is 64 hex digits, decoded by Load and
	// returned by EncryptionKeyBytes. No component of this module
	// encrypts with it; archived blobs are stored unencrypted.
	EncryptionKey string

	base          string
	encryptionKey []byte
}

// Load loads the configuration from the file called "config" in base.
func Load(base string) (*C, error) {
	filename := filepath.Join(base, "config")
	if fi, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	} else if fi.Mode()&0077 != 0 {
		return nil, fmt.Errorf("config.Load %q: mode is %#o, want at most %#o",
			filename, fi.Mode()&0777, fi.Mode()&0700)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	c, err := load(f)
	if err != nil {
		return nil, err
	}
	c.base = base
	if c.EncryptionKey != "" {
		c.encryptionKey, err = hex.DecodeString(c.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", c.EncryptionKey, err)
		}
	}
	if c.ArchiveDir != "" && !filepath.IsAbs(c.ArchiveDir) {
		c.ArchiveDir = filepath.Clean(filepath.Join(c.base, c.ArchiveDir))
	}
	if c.CollectorName == "" {
		c.CollectorName = "DQMCollector"
	}
	if c.RunControlName == "" {
		c.RunControlName = "Global"
	}
	if c.TransportBackend == "" {
		c.TransportBackend = "binarybus"
	}
	if c.ListenNet == "" {
		c.ListenNet = "tcp"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c, nil
}

func load(f io.Reader) (*C, error) {
	c := C{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i == -1 {
			return nil, fmt.Errorf("load: no separator in %q", line)
		}
		switch key, val := line[:i], strings.TrimSpace(line[i:]); key {
		case "collector-name":
			c.CollectorName = val
		case "transport-backend":
			c.TransportBackend = val
		case "listen-net":
			c.ListenNet = val
		case "listen-addr":
			c.ListenAddr = val
		case "run-control-name":
			c.RunControlName = val
		case "run-control-password":
			c.RunControlPassword = val
		case "archiver-storage":
			c.ArchiverStorage = val
		case "archive-dir":
			c.ArchiveDir = val
		case "s3-bucket":
			c.S3Bucket = val
		case "s3-access-key":
			c.S3AccessKey = val
		case "s3-secret-key":
			c.S3SecretKey = val
		case "s3-region":
			c.S3Region = val
		case "plugin-path":
			c.PluginPaths = append(c.PluginPaths, val)
		case "log-level":
			c.LogLevel = val
		case "encryption-key":
			c.EncryptionKey = val
		default:
			return nil, fmt.Errorf("load: unknown key %q", key)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &c, nil
}

func (c *C) BaseDirectory() string { return c.base }

func (c *C) ArchiveDirectoryPath() string {
	if c.ArchiveDir != "" {
		return c.ArchiveDir
	}
	return path.Join(c.base, "archive")
}

func (c *C) EncryptionKeyBytes() []byte { return c.encryptionKey }

// Initialize generates an initial configuration at the given
// directory, with a random listen port and a fresh encryption key.
func Initialize(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return fmt.Errorf("%q: could not mkdir: %w", baseDir, err)
	}
	filename := filepath.Join(baseDir, "config")
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%q: already exists", filename)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%q: could not determine if it exists: %w", filename, err)
	}

	var buf bytes.Buffer
	buf.WriteString("collector-name DQMCollector\n")
	buf.WriteString("transport-backend binarybus\n")
	buf.WriteString("listen-net tcp\n")
	buf.WriteString("listen-addr 127.0.0.1:0\n")
	buf.WriteString("run-control-name Global\n")
	buf.WriteString("archiver-storage disk\n")
	buf.WriteString("archive-dir archive\n")
	b := make([]byte, 32)
	n, err := rand.Read(b)
	if err != nil {
		return fmt.Errorf("could not read 32 random bytes: %w", err)
	}
	if n != 32 {
		return fmt.Errorf("could not read 32 random bytes, got only %d", n)
	}
	fmt.Fprintf(&buf, "encryption-key %02x\n", b)
	if err := ioutil.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("config.Initialize %q: %w", filename, err)
	}
	return nil
}
