package membuf_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/perimetr/gatekeeper/membuf"
	"github.com/stretchr/testify/suite"
)

type FixedBufferTestSuite struct {
	suite.Suite

	buf *membuf.FixedBuffer
}

func (suite *FixedBufferTestSuite) SetupTest() {
	suite.buf = membuf.NewFixedBuffer(8)
}

func (suite *FixedBufferTestSuite) TestWriteReplaces() {
	suite.NoError(suite.buf.Write([]byte("abcd")))
	suite.NoError(suite.buf.Write([]byte("xy")))
	suite.Equal([]byte("xy"), suite.buf.Bytes())
	suite.Equal(2, suite.buf.Len())
}

func (suite *FixedBufferTestSuite) TestWriteTooLarge() {
	suite.NoError(suite.buf.Write([]byte("abcd")))

	err := suite.buf.Write(bytes.Repeat([]byte{1}, 9))
	suite.Error(err)
	suite.ErrorIs(err, membuf.ErrBufferOverflow)
	suite.Equal([]byte("abcd"), suite.buf.Bytes())
}

func (suite *FixedBufferTestSuite) TestAppendUpToCapacity() {
	suite.NoError(suite.buf.Write([]byte("abcd")))
	suite.NoError(suite.buf.Append([]byte("efgh")))
	suite.Equal([]byte("abcdefgh"), suite.buf.Bytes())

	err := suite.buf.Append([]byte{1})
	suite.ErrorIs(err, membuf.ErrBufferOverflow)
	suite.Equal(8, suite.buf.Len())
	suite.Equal([]byte("abcdefgh"), suite.buf.Bytes())
}

func (suite *FixedBufferTestSuite) TestReadWithinUsed() {
	suite.NoError(suite.buf.Write([]byte("abcd")))

	dst := make([]byte, 3)
	suite.NoError(suite.buf.Read(dst))
	suite.Equal([]byte("abc"), dst)

	tooBig := make([]byte, 5)
	suite.ErrorIs(suite.buf.Read(tooBig), membuf.ErrBufferOverflow)
}

func (suite *FixedBufferTestSuite) TestReset() {
	suite.NoError(suite.buf.Write([]byte("abcd")))
	suite.buf.Reset()
	suite.Equal(0, suite.buf.Len())
	suite.Equal(8, suite.buf.Cap())
}

func (suite *FixedBufferTestSuite) TestOverflowErrorDetails() {
	err := suite.buf.Write(bytes.Repeat([]byte{1}, 100))

	var overflow *membuf.OverflowError

	suite.True(errors.As(err, &overflow))
	suite.Equal(100, overflow.Length)
	suite.Equal(8, overflow.Size)
}

func TestFixedBuffer(t *testing.T) {
	t.Parallel()
	suite.Run(t, &FixedBufferTestSuite{})
}
