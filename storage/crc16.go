package storage

// CRC16 returns the CRC-16/MCRF4XX of data (CCITT polynomial, reflected,
// initial value 0xFFFF, no final xor). It protects the record trailer.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, d := range data {
		x := d ^ byte(crc)
		x ^= x << 4
		w := uint16(x)
		crc = (crc >> 8) ^ (w << 8) ^ (w << 3) ^ (w >> 4)
	}
	return crc
}
