package collective_test

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/collective"
	"github.com/flowforge/gbdt/config"
)

func TestParseMachineListParsesPinnedRankAndHostPortLines(t *testing.T) {
	content := "rank=2\nhost-a 1000\nhost-b 1001\nhost-c 1002\n"
	ips, ports, rank, err := collective.ParseMachineList(bufio.NewScanner(strings.NewReader(content)))
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
	assert.Equal(t, []string{"host-a", "host-b", "host-c"}, ips)
	assert.Equal(t, []int{1000, 1001, 1002}, ports)
}

func TestParseMachineListInfersNoPinWhenAbsent(t *testing.T) {
	content := "host-a 1000\nhost-b 1001\n"
	_, _, rank, err := collective.ParseMachineList(bufio.NewScanner(strings.NewReader(content)))
	require.NoError(t, err)
	assert.Equal(t, -1, rank)
}

func TestParseMachineListRejectsEmptyList(t *testing.T) {
	_, _, _, err := collective.ParseMachineList(bufio.NewScanner(strings.NewReader("\n\n")))
	assert.Error(t, err)
}

// freePort asks the OS for an ephemeral port, then releases it immediately
// so Linkers.TryBind can rebind it moments later.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// TestConstructEstablishesTwoPeerConnectionOverLoopback runs a real two-rank
// Construct over loopback TCP, pinning each rank explicitly so no interface
// matching is needed, and checks both sides end up holding a live connection
// to each other, per the "smaller rank connects to larger rank" direction.
func TestConstructEstablishesTwoPeerConnectionOverLoopback(t *testing.T) {
	port0, port1 := freePort(t), freePort(t)
	dir := t.TempDir()

	pinnedList := func(rank int) string {
		f := filepath.Join(dir, fmt.Sprintf("machines-%d.txt", rank))
		content := fmt.Sprintf("rank=%d\n127.0.0.1 %d\n127.0.0.1 %d\n", rank, port0, port1)
		require.NoError(t, os.WriteFile(f, []byte(content), 0o600))
		return f
	}

	cfg0 := config.NetworkConfig{NumMachines: 2, LocalListenPort: port0, MachineListFilename: pinnedList(0)}
	cfg1 := config.NetworkConfig{NumMachines: 2, LocalListenPort: port1, MachineListFilename: pinnedList(1)}

	l0, err := collective.NewLinkers(cfg0)
	require.NoError(t, err)
	l1, err := collective.NewLinkers(cfg1)
	require.NoError(t, err)

	require.NoError(t, l0.TryBind(port0))
	require.NoError(t, l1.TryBind(port1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = l0.Construct() }()
	go func() { defer wg.Done(); errs[1] = l1.Construct() }()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	_, ok0 := l0.Conn(1)
	_, ok1 := l1.Conn(0)
	assert.True(t, ok0)
	assert.True(t, ok1)

	assert.NoError(t, l0.Close())
	assert.NoError(t, l1.Close())
}
