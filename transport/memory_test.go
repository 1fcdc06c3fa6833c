package transport

import (
	"io"
	"testing"
)

func TestPipeCarriesBothDirections(t *testing.T) {
	client, server := Pipe()

	go func() {
		client.Write([]byte("ping"))
	}()
	buf := make([]byte, 4)
	if _, err := io.ReadFull(server, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf) != "ping" {
		t.Errorf("server read %q", buf)
	}

	go func() {
		server.Write([]byte("pong"))
	}()
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(buf) != "pong" {
		t.Errorf("client read %q", buf)
	}
}

func TestPipeCloseUnblocksReader(t *testing.T) {
	client, server := Pipe()

	done := make(chan error, 1)
	go func() {
		_, err := server.Read(make([]byte, 1))
		done <- err
	}()

	client.Close()
	if err := <-done; err == nil {
		t.Error("read after peer close should fail")
	}
}
