// Command client is a minimal interactive driver for the exchange's TCP
// wire protocol: place one or more orders, request a cancel, or ask the
// server to dump its book, then print execution/error reports as they
// arrive.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"skadi/internal/core/order"
	skadinet "skadi/internal/net"
)

// reportFixedHeaderLen matches the server's Report.Serialize layout:
// 1+1+8+8+8+2+4+8+16 = 56 bytes.
const reportFixedHeaderLen = 56

func main() {
	serverAddr := flag.String("server", "127.0.0.1:7890", "address of the exchange server")
	action := flag.String("action", "place", "action to perform: ['place', 'cancel', 'log']")

	symbol := flag.String("symbol", "AAPL", "symbol (max 8 chars)")
	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	price := flag.Float64("price", 100.0, "limit price")
	qtyStr := flag.String("qty", "10", "quantity or comma-separated list (e.g. 10,20,50)")
	owner := flag.String("owner", "anon", "owner tag sent as the order's username")

	uuid := flag.String("uuid", "", "uuid of the order to cancel")

	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", *serverAddr)

	go readReports(conn)

	side := order.Bid
	if strings.ToLower(*sideStr) == "sell" {
		side = order.Ask
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			if err := sendPlaceOrder(conn, side, *symbol, *price, q, *owner); err != nil {
				log.Printf("failed to place order (qty %d): %v", q, err)
			} else {
				fmt.Printf("-> sent %s order: %s %d @ %.2f\n", strings.ToUpper(*sideStr), *symbol, q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *uuid == "" {
			log.Fatal("error: -uuid is required for cancellation")
		}
		if err := sendCancelOrder(conn, *symbol, *uuid); err != nil {
			log.Printf("failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> sent cancel request for uuid: %s\n", *uuid)
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("failed to send log request: %v", err)
		} else {
			fmt.Println("-> sent log request")
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press ctrl+c to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

func sendPlaceOrder(conn net.Conn, side order.Side, symbol string, price float64, qty uint64, owner string) error {
	usernameLen := len(owner)
	totalLen := skadinet.BaseMessageHeaderLen + skadinet.NewOrderMessageHeaderLen + usernameLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(skadinet.NewOrder))

	buf[2] = byte(side)
	symBytes := make([]byte, skadinet.SymbolLen)
	copy(symBytes, symbol)
	copy(buf[3:3+skadinet.SymbolLen], symBytes)

	off := 3 + skadinet.SymbolLen
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(price))
	binary.BigEndian.PutUint64(buf[off+8:off+16], qty)
	buf[off+16] = uint8(usernameLen)
	copy(buf[off+17:], owner)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, symbol string, uuid string) error {
	buf := make([]byte, skadinet.BaseMessageHeaderLen+skadinet.CancelOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(skadinet.CancelOrder))

	symBytes := make([]byte, skadinet.SymbolLen)
	copy(symBytes, symbol)
	copy(buf[2:2+skadinet.SymbolLen], symBytes)

	uuidOff := 2 + skadinet.SymbolLen
	uuidBytes := make([]byte, 16)
	copy(uuidBytes, uuid)
	copy(buf[uuidOff:uuidOff+16], uuidBytes)

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, skadinet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(skadinet.LogBook))
	_, err := conn.Write(buf)
	return err
}

func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedHeaderLen)
		_, err := io.ReadFull(conn, headerBuf)
		if err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := skadinet.ReportMessageType(headerBuf[0])
		side := order.Side(headerBuf[1])

		qty := binary.BigEndian.Uint64(headerBuf[10:18])
		price := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[18:26]))
		counterpartyLen := binary.BigEndian.Uint16(headerBuf[26:28])
		errStrLen := binary.BigEndian.Uint32(headerBuf[28:32])
		symbol := strings.TrimRight(string(headerBuf[32:40]), "\x00 ")

		totalVarLen := int(counterpartyLen) + int(errStrLen)
		varBuf := make([]byte, totalVarLen)
		if totalVarLen > 0 {
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("error reading report body: %v", err)
				break
			}
		}

		errStr := ""
		counterparty := ""
		if errStrLen > 0 {
			errStr = string(varBuf[:errStrLen])
		}
		if counterpartyLen > 0 {
			counterparty = string(varBuf[errStrLen:])
		}

		if msgType == skadinet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
		} else {
			sideStr := "BUY"
			if side == order.Ask {
				sideStr = "SELL"
			}
			fmt.Printf("\n[EXECUTION] %s %s | qty: %d | price: %.2f | status: %s\n",
				sideStr, symbol, qty, price, counterparty)
		}
	}
}
