package mirror

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"soccerstream/pkg/streamteam"
)

var (
	ctx       context.Context
	pool      *pgxpool.Pool
	postgresC testcontainers.Container
	unavailable bool
)

func randomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func setupPostgresContainer(ctx context.Context) (*pgxpool.Pool, testcontainers.Container, error) {
	password, err := randomPassword(16)
	if err != nil {
		return nil, nil, err
	}

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env:          map[string]string{"POSTGRES_PASSWORD": password},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, nil, err
	}

	dsn := fmt.Sprintf("postgres://postgres:%s@%s:%s/postgres?sslmode=disable", password, host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return pool, container, nil
}

var _ = BeforeSuite(func() {
	ctx = context.Background()

	if os.Getenv("SKIP_DOCKER_TESTS") != "" {
		unavailable = true
		Skip("SKIP_DOCKER_TESTS set, skipping mirror integration suite")
		return
	}

	var err error
	pool, postgresC, err = setupPostgresContainer(ctx)
	if err != nil {
		unavailable = true
		Skip(fmt.Sprintf("docker unavailable, skipping mirror integration suite: %v", err))
		return
	}

	Eventually(func() error {
		return pool.Ping(ctx)
	}, 30*time.Second, 1*time.Second).Should(Succeed(), "database never became reachable")
})

var _ = AfterSuite(func() {
	if pool != nil {
		pool.Close()
	}
	if postgresC != nil {
		_ = postgresC.Terminate(ctx)
	}
})

var _ = Describe("Backend", func() {
	var backend *Backend

	BeforeEach(func() {
		if unavailable {
			Skip("docker unavailable")
		}
		backend = New(pool)
		Expect(backend.EnsureSchema(ctx)).To(Succeed())
		_, err := pool.Exec(ctx, "TRUNCATE TABLE state_changelog RESTART IDENTITY")
		Expect(err).NotTo(HaveOccurred())
	})

	It("serves reads from the in-memory cache it just wrote", func() {
		key := streamteam.StoreKey{Store: "possession.leftTeam", Match: "match-1", Inner: "all"}
		backend.Put(key, "home")

		v, ok := backend.Get(key)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("home"))
	})

	It("restores cached state from the change log after a simulated restart", func() {
		key := streamteam.StoreKey{Store: "possession.leftTeam", Match: "match-2", Inner: "all"}
		backend.Put(key, "away")

		// Simulate a restart: a fresh Backend shares no in-memory state.
		restarted := New(pool)
		_, ok := restarted.Get(key)
		Expect(ok).To(BeFalse())

		err := restarted.Restore(ctx, "match-2", map[string]Decoder{
			"possession.leftTeam": DecodeValue[string](),
		})
		Expect(err).NotTo(HaveOccurred())

		v, ok := restarted.Get(key)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("away"))
	})

	It("restores the newest value when a key was written more than once", func() {
		key := streamteam.StoreKey{Store: "possession.teamInPossession", Match: "match-3", Inner: "all"}
		backend.Put(key, "home")
		backend.Put(key, "away")

		restarted := New(pool)
		err := restarted.Restore(ctx, "match-3", map[string]Decoder{
			"possession.teamInPossession": DecodeValue[string](),
		})
		Expect(err).NotTo(HaveOccurred())

		v, _ := restarted.Get(key)
		Expect(v).To(Equal("away"))
	})

	It("skips store names with no registered decoder instead of failing the restore", func() {
		key := streamteam.StoreKey{Store: "unregistered.store", Match: "match-4", Inner: "all"}
		backend.Put(key, "value")

		restarted := New(pool)
		err := restarted.Restore(ctx, "match-4", map[string]Decoder{})
		Expect(err).NotTo(HaveOccurred())

		_, ok := restarted.Get(key)
		Expect(ok).To(BeFalse())
	})
})
