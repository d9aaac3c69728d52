package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHub(c *qt.C) (*Hub, *httptest.Server) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/api/events", NewHandler(hub, zerolog.Nop()).HandleConnection)
	srv := httptest.NewServer(router)

	c.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(c *qt.C, srv *httptest.Server, query string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(c *qt.C, hub *Hub, courseID string, want int) {
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientsCount(courseID) != want {
		if time.Now().After(deadline) {
			c.Fatalf("timed out waiting for %d clients on %q, have %d", want, courseID, hub.ClientsCount(courseID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(c *qt.C, conn *websocket.Conn) SubscriptionEvent {
	c.Assert(conn.SetReadDeadline(time.Now().Add(2*time.Second)), qt.IsNil)
	_, data, err := conn.ReadMessage()
	c.Assert(err, qt.IsNil)
	var event SubscriptionEvent
	c.Assert(json.Unmarshal(data, &event), qt.IsNil)
	return event
}

func TestHubDeliversToCourseAndWildcardClients(t *testing.T) {
	c := qt.New(t)
	hub, srv := startHub(c)

	c1 := dial(c, srv, "?courseId=c1")
	all := dial(c, srv, "")
	waitForClients(c, hub, "c1", 1)
	waitForClients(c, hub, allCourses, 1)

	hub.Publish(SubscriptionEvent{Type: EventSubscribed, EntityKind: KindStudent, EntityID: "s1", CourseID: "c1"})

	got := readEvent(c, c1)
	c.Assert(got.Type, qt.Equals, EventSubscribed)
	c.Assert(got.EntityID, qt.Equals, "s1")
	c.Assert(got.CourseID, qt.Equals, "c1")
	c.Assert(got.Timestamp.IsZero(), qt.IsFalse)

	got = readEvent(c, all)
	c.Assert(got.CourseID, qt.Equals, "c1")
}

func TestHubFiltersByCourse(t *testing.T) {
	c := qt.New(t)
	hub, srv := startHub(c)

	c2 := dial(c, srv, "?courseId=c2")
	waitForClients(c, hub, "c2", 1)

	hub.Publish(SubscriptionEvent{Type: EventSubscribed, EntityKind: KindStudent, EntityID: "s1", CourseID: "c1"})
	hub.Publish(SubscriptionEvent{Type: EventUnsubscribed, EntityKind: KindInstructor, EntityID: "i1", CourseID: "c2"})

	// The c1 event must have been skipped.
	got := readEvent(c, c2)
	c.Assert(got.CourseID, qt.Equals, "c2")
	c.Assert(got.EntityKind, qt.Equals, KindInstructor)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	c := qt.New(t)
	hub, srv := startHub(c)

	conn := dial(c, srv, "?courseId=c1")
	waitForClients(c, hub, "c1", 1)

	c.Assert(conn.Close(), qt.IsNil)
	waitForClients(c, hub, "c1", 0)
}

func TestHubNotifiesListeners(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	listener := make(chan SubscriptionEvent, 1)
	hub.AddListener(listener)
	go hub.Run(ctx)

	hub.Publish(SubscriptionEvent{Type: EventSubscribed, CourseID: "c9"})
	select {
	case got := <-listener:
		c.Assert(got.CourseID, qt.Equals, "c9")
	case <-time.After(2 * time.Second):
		c.Fatal("listener did not receive the event")
	}

	hub.RemoveListener(listener)
	hub.listenersMu.RLock()
	c.Assert(hub.listeners, qt.HasLen, 0)
	hub.listenersMu.RUnlock()
}

func TestPublishDoesNotBlockWithoutRunningHub(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.Publish(SubscriptionEvent{CourseID: "c1"})
	}
	NopPublisher{}.Publish(SubscriptionEvent{})
}
