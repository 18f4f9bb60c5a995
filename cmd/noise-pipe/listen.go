package main

import (
	"crypto/rand"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quietchannel/noise"
	"github.com/quietchannel/noise/cmd/noise-pipe/registry"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Accept Noise_XX handshakes and echo transport messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLogLevel(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		return runListen(addr)
	},
}

func init() {
	listenCmd.Flags().String("addr", "127.0.0.1:4343", "address to listen on")
	rootCmd.AddCommand(listenCmd)
}

func runListen(addr string) error {
	cs := noise.NewCipherSuite(noise.DH25519, noise.CipherAESGCM, noise.HashSHA256)
	static, err := noise.DH25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.WithField("addr", addr).Info("listening for noise-pipe dials")

	reg := registry.New()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handleConn(conn, cs, static, reg)
	}
}

func handleConn(conn net.Conn, cs noise.CipherSuite, static noise.DHKey, reg *registry.Registry) {
	defer conn.Close()

	id := reg.Open(conn.RemoteAddr().String(), false, "Noise_XX_25519_AESGCM_SHA256")
	defer reg.Close(id)
	entry := log.WithFields(logrus.Fields{"session": id, "remote": conn.RemoteAddr()})

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cs,
		Pattern:       noise.HandshakeXX,
		Initiator:     false,
		StaticKeypair: static,
	})
	if err != nil {
		entry.WithError(err).Error("responder NewHandshakeState failed")
		return
	}

	enc, dec, err := runResponderHandshake(conn, hs)
	if err != nil {
		entry.WithError(err).Error("handshake failed")
		return
	}
	reg.Complete(id, hs.ChannelBinding())
	entry.Info("handshake complete")

	for {
		frame, err := readFrame(conn)
		if err != nil {
			entry.WithError(err).Debug("connection closed")
			return
		}
		plaintext, err := dec.Decrypt(nil, nil, frame)
		if err != nil {
			entry.WithError(err).Error("transport decrypt failed")
			return
		}
		entry.WithField("payload", string(plaintext)).Info("received transport message")

		reply, err := enc.Encrypt(nil, nil, plaintext)
		if err != nil {
			entry.WithError(err).Error("transport encrypt failed")
			return
		}
		if err := writeFrame(conn, reply); err != nil {
			entry.WithError(err).Error("write failed")
			return
		}
	}
}

// runResponderHandshake drives the three-message Noise_XX exchange from the
// responder side, returning the CipherStates for sending to and receiving
// from the initiator.
func runResponderHandshake(conn net.Conn, hs *noise.HandshakeState) (enc, dec *noise.CipherState, err error) {
	msg1, err := readFrame(conn)
	if err != nil {
		return nil, nil, err
	}
	if _, _, _, err := hs.ReadMessage(nil, msg1); err != nil {
		return nil, nil, err
	}

	msg2, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := writeFrame(conn, msg2); err != nil {
		return nil, nil, err
	}

	msg3, err := readFrame(conn)
	if err != nil {
		return nil, nil, err
	}
	_, cs1, cs2, err := hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, nil, err
	}
	// cs1 carries initiator-to-responder, cs2 the reverse: the responder
	// decrypts with cs1 and encrypts with cs2.
	return cs2, cs1, nil
}
