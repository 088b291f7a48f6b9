package protocol

import "github.com/sigurn/crc16"

// Frames are checked with CRC-16/MCRF4XX (poly 0x1021 reflected, init 0xFFFF)
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 calculates the frame checksum over header and payload
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// appendCRC appends the big-endian checksum of data and the sync byte
func appendCRC(out []byte, data []byte) []byte {
	crc := CRC16(data)
	return append(out, uint8(crc>>8), uint8(crc), MessageValueSync)
}
