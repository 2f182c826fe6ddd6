// Package protocol implements the Zabbix trapper wire protocol used to push
// item values to a collector ("sender data" requests).
//
// The package is pure: it builds and classifies frames, and reads one reply
// from a buffered reader. Connection management, retries and buffering live in
// the trapper package.
//
// # Frames
//
// Every request is a JSON body behind a 13-byte header:
//
//	"ZBXD" 0x01 <u32le length> <u32le 0> {"request":"sender data","data":[...]}
//
// Encode builds a frame from measurements, preserving their order:
//
//	frame := protocol.Encode([]protocol.Measurement{
//	    {Host: "web-1", Key: "cpu.load", Value: "0.5", Clock: 1700000000},
//	})
//
// # Replies
//
// ReadFrame reads a reply using the declared length, and Decode classifies it:
//
//	raw, err := protocol.ReadFrame(bufio.NewReader(conn), protocol.DefaultMaxResponseSize)
//	if err != nil {
//	    if protocol.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//	resp, err := protocol.Decode(raw)
//
// Decode returns StatusSuccess only for {"response":"success"}. Empty or
// undecodable bodies are StatusIndeterminate, not errors. Replies without the
// header are accepted as bare JSON for older peers.
package protocol
