package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/turbo-critical/pkg/models/api"
	"github.com/de-tools/turbo-critical/pkg/store/client/turbotest"
)

type fixture struct {
	server  *turbotest.Server
	deps    Dependencies
	dir     string
	prompts int
}

// setupFixture seeds a platform where vm-1 still awaits approval from the previous run,
// vm-2 was approved, and vm-3 and vm-4 carry the largest memory increases.
func setupFixture(t *testing.T) *fixture {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	server := turbotest.NewServer(logger)
	t.Cleanup(server.Close)
	server.Users["administrator"] = "secret"

	vm1 := turbotest.VM("vm-1", "web-01")
	vm2 := turbotest.VM("vm-2", "web-02")
	vm3 := turbotest.VM("vm-3", "db-01")
	vm4 := turbotest.VM("vm-4", "app-01")
	server.Entities = []api.ServiceEntityApiDTO{vm1, vm2, vm3, vm4}

	pending := turbotest.ResizeAction(vm1, "VMem", 1024, 1100)
	pending.ActionMode = "EXTERNAL_APPROVAL"
	server.Actions = []api.ActionApiDTO{
		pending,
		turbotest.ResizeAction(vm2, "VMem", 1024, 1536),
		turbotest.ResizeAction(vm3, "VMem", 1024, 4096),
		turbotest.ResizeAction(vm4, "VMem", 1024, 2048),
	}
	server.Groups = []api.GroupApiDTO{{
		UUID:           "g1",
		DisplayName:    "critical-vmem",
		GroupType:      "VirtualMachine",
		IsStatic:       true,
		MemberUuidList: []string{"vm-1", "vm-2"},
	}}

	f := &fixture{server: server, dir: t.TempDir()}
	f.deps = Dependencies{
		Logger: logger,
		Prompt: func(_ context.Context, username string) (string, error) {
			f.prompts++
			if username != "administrator" {
				return "", fmt.Errorf("unexpected user %s", username)
			}
			return "secret", nil
		},
	}
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewLimitCmd(f.deps)
	cmd.SilenceErrors = true
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (f *fixture) args(extra ...string) []string {
	return append([]string{
		"--reason-commodity", "VMem",
		"--file-name", filepath.Join(f.dir, "critical"),
		"--num-sorted", "2",
		"--group-name", "critical-vmem",
		"--target", f.server.URL(),
	}, extra...)
}

func TestLimit_EndToEnd(t *testing.T) {
	// Given
	f := setupFixture(t)

	// When
	out, err := f.run(t, f.args("--username", "administrator")...)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 1, f.prompts)
	assert.Equal(t, "Adding previous entity vm-1 to the current list\n"+
		"[Groups Updated] critical-vmem: 2 members added, 1 removed\n"+
		"\n"+
		"Entities Not Found: 0\n"+
		"Groups Created: 0\n"+
		"Groups Deleted: 0\n"+
		"Groups Unchanged: 0\n"+
		"Groups Updated: 1\n", out)

	content, err := os.ReadFile(filepath.Join(f.dir, "critical.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Entity Type,Entity Name,Department\n"+
		"VirtualMachine,db-01,critical-vmem\n"+
		"VirtualMachine,app-01,critical-vmem\n"+
		"VirtualMachine,web-01,critical-vmem\n", string(content))

	group, ok := f.server.Group("critical-vmem")
	require.True(t, ok)
	assert.Equal(t, []string{"vm-3", "vm-4", "vm-1"}, group.MemberUuidList)
}

func TestLimit_FirstRunCreatesGroup(t *testing.T) {
	f := setupFixture(t)
	f.server.Groups = nil
	creds := base64.StdEncoding.EncodeToString([]byte("administrator:secret"))

	out, err := f.run(t, f.args("--encoded-creds", creds, "--quiet")...)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, f.prompts)
	group, ok := f.server.Group("critical-vmem")
	require.True(t, ok)
	assert.Equal(t, []string{"vm-3", "vm-4"}, group.MemberUuidList)
}

func TestLimit_DryRun(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run(t, f.args("--dry-run")...)

	require.NoError(t, err)
	assert.Contains(t, out, "Groups Updated: 1\n")
	group, _ := f.server.Group("critical-vmem")
	assert.Equal(t, []string{"vm-1", "vm-2"}, group.MemberUuidList)
	assert.FileExists(t, filepath.Join(f.dir, "critical.csv"))
}

func TestLimit_Profile(t *testing.T) {
	f := setupFixture(t)
	f.deps.ProfilePath = filepath.Join(f.dir, ".turbocfg")
	profiles := fmt.Sprintf("[lab]\ntarget = %s\nusername = administrator\npassword = secret\n", f.server.URL())
	require.NoError(t, os.WriteFile(f.deps.ProfilePath, []byte(profiles), 0o600))

	_, err := f.run(t,
		"-r", "VMem",
		"-f", filepath.Join(f.dir, "critical"),
		"-n", "1",
		"-g", "critical-vmem",
		"--profile", "lab",
	)

	require.NoError(t, err)
	assert.Zero(t, f.prompts)
	group, _ := f.server.Group("critical-vmem")
	assert.Equal(t, []string{"vm-3", "vm-1"}, group.MemberUuidList)
}

func TestLimit_FatalError(t *testing.T) {
	f := setupFixture(t)
	f.server.Users["administrator"] = "rotated"

	out, err := f.run(t, f.args("--username", "administrator", "--quiet")...)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Contains(t, out, "Fatal Error: failed to log in to")
	assert.NoFileExists(t, filepath.Join(f.dir, "critical.csv"))
	group, _ := f.server.Group("critical-vmem")
	assert.Equal(t, []string{"vm-1", "vm-2"}, group.MemberUuidList)
}

func TestLimit_UnknownCommodity(t *testing.T) {
	f := setupFixture(t)
	args := f.args("--username", "administrator")
	args[1] = "StorageAmount"

	out, err := f.run(t, args...)

	require.Error(t, err)
	assert.Contains(t, out, "Fatal Error:")
	assert.Contains(t, out, "StorageAmount")
	assert.Zero(t, f.prompts)
	assert.Empty(t, f.server.Requests)
}

func TestLimit_NegativeCount(t *testing.T) {
	f := setupFixture(t)
	args := f.args()
	args[5] = "-1"

	out, err := f.run(t, args...)

	require.Error(t, err)
	assert.Contains(t, out, "num-sorted must not be negative")
	assert.Zero(t, f.prompts)
	assert.Empty(t, f.server.Requests)
}

func TestLimit_LowercaseCommodity(t *testing.T) {
	f := setupFixture(t)
	args := f.args()
	args[1] = "vmem"

	_, err := f.run(t, args...)

	require.NoError(t, err)
	group, _ := f.server.Group("critical-vmem")
	assert.Equal(t, []string{"vm-3", "vm-4", "vm-1"}, group.MemberUuidList)
}

func TestLimit_NothingCriticalDeletesStaleGroup(t *testing.T) {
	// Given no critical actions left and a group whose members were all approved
	f := setupFixture(t)
	f.server.Actions = []api.ActionApiDTO{}

	// When
	out, err := f.run(t, f.args()...)

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "Groups Deleted: 1\n")
	_, ok := f.server.Group("critical-vmem")
	assert.False(t, ok)

	content, err := os.ReadFile(filepath.Join(f.dir, "critical.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Entity Type,Entity Name,Department\n", string(content))
}

func TestLimit_InterruptedPrompt(t *testing.T) {
	f := setupFixture(t)
	f.deps.Prompt = func(context.Context, string) (string, error) {
		return "", context.Canceled
	}

	out, err := f.run(t, f.args()...)

	require.NoError(t, err)
	assert.Equal(t, "\n", out)
	assert.NotContains(t, f.server.Requests, "POST /api/v3/login")
}

func TestLimit_MissingRequiredFlags(t *testing.T) {
	f := setupFixture(t)

	_, err := f.run(t, "--reason-commodity", "VMem")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	var fatal *FatalError
	assert.False(t, errors.As(err, &fatal))
}

func TestProfiles(t *testing.T) {
	f := setupFixture(t)
	path := filepath.Join(f.dir, ".turbocfg")
	require.NoError(t, os.WriteFile(path, []byte("[prod]\ntarget = turbo.example.com\n\n[lab]\ntarget = 10.0.0.5\n"), 0o600))
	f.deps.ProfilePath = path

	out, err := f.run(t, "profiles")

	require.NoError(t, err)
	assert.Equal(t, "prod:turbo.example.com\nlab:10.0.0.5\n", out)
}
